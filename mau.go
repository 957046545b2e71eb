// Package mau is a conversational form engine: it drives step-by-step
// interviews over chat-like channels, persisting progress between
// messages so a stateless request/response channel can conduct
// multi-turn dialogs.
//
// A FormSet holds named forms, each an ordered list of queries. Per
// inbound message the set loads the chat's session, advances the form
// one query through its pre/post hooks, persists the session and emits
// the next question to subscribers:
//
//	formset := mau.NewFormSet(mau.FormSetOptions{})
//	formset.AddForm("profile", []mau.Query{
//		{Name: "name", Text: "What is your name?"},
//		{Name: "color", Question: &mau.Question{
//			Text:    "Pick a color",
//			Choices: mau.ChoiceList("red", "green"),
//		}},
//	}, mau.FormOptions{
//		Complete: func(ctx context.Context, answers map[string]any, ref any) error {
//			// use answers["name"], answers["color"]
//			return nil
//		},
//	})
//	formset.OnQuery(func(prompt *mau.Prompt, ref any) {
//		// deliver prompt.Text (and prompt.Choices) to the chat
//	})
//
//	// per inbound message:
//	err := formset.Process(ctx, chatID, text, ref)
//	if errors.Is(err, mau.ErrFormNotFound) {
//		err = formset.ProcessForm(ctx, "profile", chatID, ref)
//	}
//
// Hooks steer the interview with one-shot control operations: Skip and
// Goto from pre hooks, Retry, Stop and Goto from post hooks. Strict
// choice questions re-ask themselves automatically when the answer is
// not a listed choice id.
//
// Sessions live in a pluggable store (see the store package and its
// redisstore and pgstore backends); adapter/telegram binds a FormSet to
// a Telegram bot.
package mau
