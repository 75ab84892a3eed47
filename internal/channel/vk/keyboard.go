package vk

import "encoding/json"

type keyboardPayload struct {
	OneTime bool              `json:"one_time"`
	Buttons [][]buttonPayload `json:"buttons"`
}

type buttonPayload struct {
	Action buttonAction `json:"action"`
	Color  string       `json:"color"`
}

type buttonAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

// marshalKeyboard encodes label rows as the Callback API keyboard object.
func marshalKeyboard(rows [][]string, oneTime bool) (string, error) {
	payload := keyboardPayload{
		OneTime: oneTime,
		Buttons: make([][]buttonPayload, 0, len(rows)),
	}
	for _, row := range rows {
		buttons := make([]buttonPayload, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, buttonPayload{
				Action: buttonAction{Type: "text", Label: label},
				Color:  "secondary",
			})
		}
		payload.Buttons = append(payload.Buttons, buttons)
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
