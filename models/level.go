package models

// LevelThresholds lists the XP needed to reach each level (index 0 = level 1).
// Growth is roughly geometric to slow late-game progression.
var LevelThresholds = [MaxLevel]int64{
	0,     // Level 1
	100,   // Level 2
	250,   // Level 3
	500,   // Level 4
	850,   // Level 5
	1300,  // Level 6
	1850,  // Level 7
	2500,  // Level 8
	3300,  // Level 9
	4200,  // Level 10
	5200,  // Level 11
	6400,  // Level 12
	7800,  // Level 13
	9400,  // Level 14
	11200, // Level 15
	13200, // Level 16
	15500, // Level 17
	18000, // Level 18
	20800, // Level 19
	24000, // Level 20
}

const MaxLevel = 20

// LevelTitles is sparse: a level without an entry keeps the title of the tier below it.
var LevelTitles = map[int]string{
	1:  "Rookie Recycler",
	2:  "Green Beginner",
	3:  "Eco Learner",
	4:  "Sustainability Starter",
	5:  "Planet Protector",
	6:  "Earth Guardian",
	7:  "Eco Warrior",
	8:  "Green Champion",
	9:  "Sustainability Hero",
	10: "Eco Legend",
	15: "Planet Savior",
	20: "Eco Master",
}
