package telegram

import (
	"context"
	"encoding/json"

	"github.com/forfuturellc/mau"
)

// choicesPrefix namespaces the per-chat choice bookkeeping inside the
// formset's own store.
const choicesPrefix = "choices:"

// rememberChoices records the pending question's choices for the chat,
// or clears the record when the question has none.
func (a *Adapter) rememberChoices(ctx context.Context, chatID string, choices []mau.PromptChoice) error {
	key := choicesPrefix + chatID
	st := a.formset.Store()
	if len(choices) == 0 {
		_, err := st.Del(ctx, key)
		return err
	}
	data, err := json.Marshal(choices)
	if err != nil {
		return err
	}
	return st.Put(ctx, key, data, 0)
}

// resolveChoice maps an answer matching a remembered choice label back
// to the choice id. Unknown answers pass through unchanged.
func (a *Adapter) resolveChoice(ctx context.Context, chatID, answer string) (string, error) {
	data, found, err := a.formset.Store().Get(ctx, choicesPrefix+chatID)
	if err != nil {
		return answer, err
	}
	if !found {
		return answer, nil
	}
	var choices []mau.PromptChoice
	if err := json.Unmarshal(data, &choices); err != nil {
		return answer, err
	}
	return matchChoice(choices, answer), nil
}

// matchChoice maps a choice label to its id; ids and unknown answers
// pass through unchanged.
func matchChoice(choices []mau.PromptChoice, answer string) string {
	for _, choice := range choices {
		if choice.Text == answer {
			return choice.ID
		}
	}
	return answer
}
