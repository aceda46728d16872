/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

const (
	kindTruth = "truth"
	kindDare  = "dare"

	levelEasy   = "easy"
	levelMedium = "medium"
	levelHot    = "hot"
)

// Question is a single prompt from the static bank.
type Question struct {
	ID    int    `json:"id"`
	Type  string `json:"type"`
	Level string `json:"level"`
	Text  string `json:"text"`
}

var questionBank = []Question{
	{1, kindTruth, levelEasy, "What is the most embarrassing song on your playlist?"},
	{2, kindTruth, levelEasy, "What was your first impression of me?"},
	{3, kindTruth, levelEasy, "What is a habit of yours you would never admit to in public?"},
	{4, kindTruth, levelMedium, "What is the pettiest reason you have stopped talking to someone?"},
	{5, kindTruth, levelMedium, "What is the biggest lie you have told to get out of plans?"},
	{6, kindTruth, levelMedium, "Which text message would you least want me to read?"},
	{7, kindTruth, levelHot, "What is something you have always wanted to tell me but never did?"},
	{8, kindTruth, levelHot, "What is your idea of a perfect date?"},
	{9, kindDare, levelEasy, "Do your best impression of me for thirty seconds."},
	{10, kindDare, levelEasy, "Sing the chorus of the last song you listened to."},
	{11, kindDare, levelEasy, "Talk in an accent until your next turn."},
	{12, kindDare, levelMedium, "Let me post any emoji to your status."},
	{13, kindDare, levelMedium, "Show the last photo in your camera roll."},
	{14, kindDare, levelMedium, "Do ten push-ups while reciting the alphabet."},
	{15, kindDare, levelHot, "Give me a genuine compliment without laughing."},
	{16, kindDare, levelHot, "Write a two-line love poem about me and read it aloud."},
}

// questionsOf returns the questions of the given type in catalog order.
func questionsOf(kind string) []Question {
	out := make([]Question, 0, len(questionBank)/2)
	for _, q := range questionBank {
		if q.Type == kind {
			out = append(out, q)
		}
	}

	return out
}
