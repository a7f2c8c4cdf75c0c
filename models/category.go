package models

// UpcycleIdea is a reuse suggestion shown on a scan result.
type UpcycleIdea struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Difficulty  MissionDifficulty `json:"difficulty"`
}

// RecycleInfo tells the user how to dispose of an item they don't trade.
type RecycleInfo struct {
	Recyclable string   `json:"recyclable"`
	Method     string   `json:"method"`
	Tips       []string `json:"tips"`
}

// ItemCategory is the local knowledge the scanner has about a classifier category.
type ItemCategory struct {
	Key          string        `json:"key"`
	Material     string        `json:"material"`
	MinCoins     int64         `json:"min_coins"`
	MaxCoins     int64         `json:"max_coins"`
	UpcycleIdeas []UpcycleIdea `json:"upcycle_ideas"`
	Recycle      RecycleInfo   `json:"recycle"`
}

// MidpointCoins is the estimate used when the classifier gives no coin value.
func (c ItemCategory) MidpointCoins() int64 {
	return (c.MinCoins + c.MaxCoins) / 2
}

const CategoryOther = "other"

var ItemCategories = map[string]ItemCategory{
	"electronics": {
		Key: "electronics", Material: "Plastic & Electronics", MinCoins: 40, MaxCoins: 150,
		UpcycleIdeas: []UpcycleIdea{
			{"DIY Desk Organizer", "Turn old electronics into stylish desk storage", DifficultyMedium},
			{"Art Installation", "Create modern art from circuit boards", DifficultyEasy},
			{"Plant Holder", "Convert old devices into unique planters", DifficultyEasy},
		},
		Recycle: RecycleInfo{"Yes", "E-waste center", []string{"Remove batteries", "Wipe data"}},
	},
	"books": {
		Key: "books", Material: "Paper & Cardboard", MinCoins: 15, MaxCoins: 60,
		UpcycleIdeas: []UpcycleIdea{
			{"Book Planter", "Hollow old books to create hidden planters", DifficultyEasy},
			{"Paper Beads", "Roll colorful pages into jewelry beads", DifficultyEasy},
			{"Book Safe", "Create a secret storage compartment", DifficultyMedium},
		},
		Recycle: RecycleInfo{"Yes", "Paper recycling", []string{"Remove plastic covers", "Donate if readable"}},
	},
	"furniture": {
		Key: "furniture", Material: "Wood & Metal", MinCoins: 50, MaxCoins: 200,
		UpcycleIdeas: []UpcycleIdea{
			{"Painted Refresh", "Give new life with chalk paint", DifficultyEasy},
			{"Decoupage Design", "Cover with decorative paper or fabric", DifficultyMedium},
			{"Modular Storage", "Combine pieces for custom storage", DifficultyHard},
		},
		Recycle: RecycleInfo{"Partially", "Depends on material", []string{"Metal to scrap"}},
	},
	"clothing": {
		Key: "clothing", Material: "Fabric & Textile", MinCoins: 20, MaxCoins: 100,
		UpcycleIdeas: []UpcycleIdea{
			{"Tote Bag", "Transform old clothes into reusable bags", DifficultyMedium},
			{"Patchwork Quilt", "Combine fabrics into cozy blanket", DifficultyHard},
			{"Scrunchies", "Make hair accessories from fabric scraps", DifficultyEasy},
		},
		Recycle: RecycleInfo{"Yes", "Textile recycling", []string{"Donate wearable items"}},
	},
	"kitchen": {
		Key: "kitchen", Material: "Ceramic & Metal", MinCoins: 15, MaxCoins: 70,
		UpcycleIdeas: []UpcycleIdea{
			{"Herb Garden", "Use containers for windowsill herbs", DifficultyEasy},
			{"Candle Holders", "Transform cups into candle holders", DifficultyEasy},
			{"Wind Chime", "Create musical garden decor", DifficultyMedium},
		},
		Recycle: RecycleInfo{"Varies", "Check material", []string{"Glass/metal recyclable"}},
	},
	"sports": {
		Key: "sports", Material: "Mixed Materials", MinCoins: 30, MaxCoins: 120,
		UpcycleIdeas: []UpcycleIdea{
			{"Wall Display", "Mount as sporting memorabilia", DifficultyEasy},
			{"Planter", "Convert into unique planters", DifficultyEasy},
			{"Furniture", "Turn into creative shelving", DifficultyHard},
		},
		Recycle: RecycleInfo{"Partially", "Varies", []string{"Donate usable gear"}},
	},
	CategoryOther: {
		Key: CategoryOther, Material: "Various Materials", MinCoins: 10, MaxCoins: 60,
		UpcycleIdeas: []UpcycleIdea{
			{"Decorative Mosaic", "Break and reassemble into art", DifficultyMedium},
			{"Gift Wrapping", "Use as unique containers", DifficultyEasy},
			{"Garden Feature", "Repurpose as outdoor decor", DifficultyEasy},
		},
		Recycle: RecycleInfo{"Check locally", "Varies", []string{"Research local options"}},
	},
}

// FindCategory looks up a normalized category key, falling back to "other".
func FindCategory(key string) ItemCategory {
	if c, ok := ItemCategories[key]; ok {
		return c
	}
	return ItemCategories[CategoryOther]
}
