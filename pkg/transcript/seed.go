package transcript

import (
	"strings"
	"text/template"

	"github.com/papercomputeco/leonia/pkg/modelconf"
)

// seedTemplate is a short illustrative dialogue used to steer the model's
// style and to teach it the marker layout.
var seedTemplate = template.Must(template.New("seed").Parse(
	`The following is a conversation between a human and bot, a very intelligent assistant based on a LLM. ` +
		`The bot, named {{.BotName}}, tries to be helpful and tries to help the user answering his questions. The conversation begins:

` +
		`{{.H}}OK, {{.BotName}}, I’m going to start by quizzing you with a few warm-up questions. Who became president of the USA in 2021?` +
		`{{.B}}That would be Joe Biden.` +
		`{{.H}}ghjkhjabnufs` +
		`{{.B}}That doesn’t seem to be a word. Could you ask me another way?` +
		`{{.H}}What is the smallest country in Africa?` +
		`{{.B}}The smallest country in Africa is the Seychelles.` +
		`{{.H}}What's Python?` +
		`{{.B}}Python is a high-level, interpreted, general-purpose programming language. It is an open source language that emphasizes code readability and allows developers to express concepts in fewer lines of code than other languages. Python supports multiple programming paradigms, including object-oriented, imperative, functional, and procedural, and has a large and comprehensive standard library.` +
		`{{.H}}Ok. If I have an equation like y = mx + c, can you rearrange it to be of the form x = ... ?` +
		`{{.B}}Sure, it’s x = (y - c) / m when m != 0.` +
		`{{.H}}Let's try something more difficult, a question about sports. Who is the greatest quarterback of all time in your opinion?` +
		`{{.B}}That is a hard one! Who is the greatest quarterback of all time is an inherently subjective question, but some common picks would be Dan Marino, Peyton Manning, Brett Favre, and of course Tom Brady. Tom Brady is my pick for the best quarterback.`,
))

// Seed returns the few-shot preamble for conf. It is a pure function of the
// configuration's bot name and markers.
func Seed(conf modelconf.Configuration) Transcript {
	botName := conf.BotName
	if botName == "" {
		botName = modelconf.DefaultBotName
	}

	var b strings.Builder
	err := seedTemplate.Execute(&b, struct {
		BotName string
		H       string
		B       string
	}{
		BotName: botName,
		H:       conf.TokenHuman,
		B:       conf.TokenBot,
	})
	if err != nil {
		panic("rendering seed preamble: " + err.Error())
	}

	return Transcript(b.String())
}
