package cards

import "github.com/hitoshi/tunedeck/internal/model"

// seedCards はシードで投入する固定カードセット。
// uriが一意キーで、再シードは同一uriの内容上書きになる。
var seedCards = []model.Card{
	{
		Title:       "Midnight City",
		Artist:      "M83",
		URI:         "spotify:track:6GyFP1nfCDB8lbD2bG0Hq9",
		Img:         "https://i.scdn.co/image/ab6761610000e5eb6eb9b5af6b6c8c3a4cded894",
		Cover:       "https://i.scdn.co/image/ab67616d0000b273b4b8e9f1a32eec4a1a63e9a4",
		Description: "シンセの洪水とサックスソロが交差する、夜のドライブのためのアンセム。",
	},
	{
		Title:       "Nightcall",
		Artist:      "Kavinsky",
		URI:         "spotify:track:0U0ldCRmgCqhVvD6ksG63j",
		Img:         "https://i.scdn.co/image/ab6761610000e5eb3b1bbd1f9d0ce3d2b3f0f0a1",
		Cover:       "https://i.scdn.co/image/ab67616d0000b2734c6f2fd8e9a19aa1ad2e3a77",
		Description: "映画『ドライヴ』で知られるエレクトロハウスの名曲。",
	},
	{
		Title:       "Breathe Deeper",
		Artist:      "Tame Impala",
		URI:         "spotify:track:1XXimziG1uhM0eDNCZCrUl",
		Img:         "https://i.scdn.co/image/ab6761610000e5eb90357ef28b3a012a1d1b2fa2",
		Cover:       "https://i.scdn.co/image/ab67616d0000b273bd5f03953cf2a25e2dbdea1a",
		Description: "サイケデリックとディスコが溶け合うグルーヴ。",
	},
	{
		Title:       "Weird Fishes/Arpeggi",
		Artist:      "Radiohead",
		URI:         "spotify:track:4wajJ1o7jWIg62YqpkHC7S",
		Img:         "https://i.scdn.co/image/ab6761610000e5eba03696716c9ee605006047fd",
		Cover:       "https://i.scdn.co/image/ab67616d0000b273de3c04b5fc750b68899b20a9",
		Description: "深海へ沈んでいくようなアルペジオの重なり。",
	},
	{
		Title:       "Redbone",
		Artist:      "Childish Gambino",
		URI:         "spotify:track:0wXuerDYiBnERgIpbb3JBR",
		Img:         "https://i.scdn.co/image/ab6761610000e5eb07cd4e4b97c05c4b2e8b9a77",
		Cover:       "https://i.scdn.co/image/ab67616d0000b2731ea0c62b2339cbf493a999ad",
		Description: "ファルセットが浮遊するサイケデリックソウル。",
	},
	{
		Title:       "Cold Little Heart",
		Artist:      "Michael Kiwanuka",
		URI:         "spotify:track:0qprWa0avBgnnnEgO0Qsg2",
		Img:         "https://i.scdn.co/image/ab6761610000e5eb1b3c11b818c96b0a3e9a6b1e",
		Cover:       "https://i.scdn.co/image/ab67616d0000b2737a2a0c7dfa7f33aabaaf58e9",
		Description: "10分に及ぶイントロから始まる現代ソウルの傑作。",
	},
	{
		Title:       "Space Song",
		Artist:      "Beach House",
		URI:         "spotify:track:7H0ya83CMmgFcOhw0UB6ow",
		Img:         "https://i.scdn.co/image/ab6761610000e5eb5ab5b242a0cabb4b2bb3dcd1",
		Cover:       "https://i.scdn.co/image/ab67616d0000b27317e346f27e1c6cc6d1b6b6a0",
		Description: "ドリームポップの静かな宇宙遊泳。",
	},
	{
		Title:       "Myth",
		Artist:      "Beach Fossils",
		URI:         "spotify:track:2BtE7qm1qzM80p9vLSiXkj",
		Img:         "https://i.scdn.co/image/ab6761610000e5eb2b113b1e9561ae1b2b7b3cc0",
		Cover:       "https://i.scdn.co/image/ab67616d0000b273b1f8da74f1a1ac9e1a46dc22",
		Description: "霞がかったギターが心地よいインディーロック。",
	},
	{
		Title:       "Eventually",
		Artist:      "Tame Impala",
		URI:         "spotify:track:2X485T9Z5Ly0xyaghN73ed",
		Img:         "https://i.scdn.co/image/ab6761610000e5eb90357ef28b3a012a1d1b2fa2",
		Cover:       "https://i.scdn.co/image/ab67616d0000b2739e1cfc756886ac782e363d79",
		Description: "喪失を祝福に変えるサイケポップ。",
	},
	{
		Title:       "Apocalypse",
		Artist:      "Cigarettes After Sex",
		URI:         "spotify:track:3AVrVz5rK8Hrqo9YGiVGN5",
		Img:         "https://i.scdn.co/image/ab6761610000e5ebbe6e2a8d9c1ca1838f0ae6d4",
		Cover:       "https://i.scdn.co/image/ab67616d0000b27344e8c8c2aa9b182a0a326e9e",
		Description: "モノクロームの世界に漂うスロウコア。",
	},
}
