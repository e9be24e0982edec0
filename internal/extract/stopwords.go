package extract

import "strings"

// Tokens that pass the shape checks but are never character names. Checked
// case-insensitively.
var stopWords = map[string]struct{}{}

func init() {
	words := []string{
		// pronouns
		"i", "me", "my", "mine", "you", "your", "yours", "he", "him", "his",
		"she", "her", "hers", "it", "its", "we", "us", "our", "ours", "they",
		"them", "their", "theirs", "who", "whom", "whose", "this", "that",
		"these", "those", "someone", "anyone", "everyone", "nobody",
		// articles, conjunctions, prepositions
		"a", "an", "the", "and", "or", "but", "nor", "so", "yet", "if",
		"then", "than", "as", "at", "by", "for", "from", "in", "into", "of",
		"off", "on", "onto", "out", "over", "to", "under", "up", "with",
		"without", "about", "above", "across", "after", "against", "along",
		"around", "before", "behind", "below", "beneath", "beside", "between",
		"beyond", "down", "during", "inside", "near", "through", "toward",
		"towards", "upon", "within",
		// common verbs and auxiliaries
		"am", "is", "are", "was", "were", "be", "been", "being", "do", "does",
		"did", "have", "has", "had", "will", "would", "shall", "should",
		"can", "could", "may", "might", "must", "says", "said", "asks",
		"asked", "goes", "went", "comes", "came", "looks", "looked", "takes",
		"took", "gets", "got", "makes", "made", "gives", "gave", "turns",
		"turned", "walks", "walked", "enters", "entered", "leaves", "left",
		"sits", "stands", "nods", "smiles", "laughs", "pours", "drinks",
		// generic nouns common in scene prose
		"man", "woman", "person", "people", "friend", "stranger", "guest",
		"door", "table", "chair", "room", "floor", "wall", "window", "night",
		"day", "morning", "evening", "time", "moment", "hand", "hands",
		"eyes", "face", "voice", "head", "bar", "tavern", "inn", "drink",
		"ale", "mead", "wine", "beer", "whiskey", "mug", "tankard", "glass",
		"cup", "bottle", "fire", "hearth", "corner", "crowd", "music",
		// meta
		"ooc", "gm", "dgm", "dm", "scene", "end", "everyone", "all", "okay",
		"yes", "no", "hello", "hey", "well", "oh", "ah", "hmm", "thanks",
		"please", "sorry", "what", "when", "where", "why", "how", "there",
		"here", "now", "just", "also", "very", "really", "maybe", "perhaps",
	}
	for _, w := range words {
		stopWords[w] = struct{}{}
	}
}

func isStopWord(tok string) bool {
	_, ok := stopWords[strings.ToLower(tok)]
	return ok
}
