package gamification

// DefaultXP is granted when a user's progress record is first created.
const DefaultXP = 75

type Level struct {
	Level      int    `json:"level"`
	Name       string `json:"name"`
	XPRequired int    `json:"xpRequired"`
}

var Levels = []Level{
	{1, "Novice Debater", 0},
	{2, "Rising Speaker", 100},
	{3, "Argument Apprentice", 250},
	{4, "Reasoning Rookie", 400},
	{5, "Persuasion Prodigy", 600},
	{6, "Logic Learner", 850},
	{7, "Contention Crafter", 1150},
	{8, "Speech Specialist", 1500},
	{9, "Debate Enthusiast", 1900},
	{10, "Rebuttal Ranger", 2350},
	{11, "Oratory Officer", 2850},
	{12, "Argument Analyst", 3400},
	{13, "Logic Leader", 4000},
	{14, "Contention Commander", 4650},
	{15, "Speech Strategist", 5350},
	{16, "Debate Veteran", 6100},
	{17, "Oratory Expert", 6900},
	{18, "Debate Master", 7750},
	{19, "Grandmaster Debater", 8650},
	{20, "Legendary Orator", 9600},
}

// LevelFor returns the highest level whose requirement xp meets.
func LevelFor(xp int) Level {
	cur := Levels[0]
	for _, l := range Levels {
		if xp < l.XPRequired {
			break
		}
		cur = l
	}
	return cur
}
