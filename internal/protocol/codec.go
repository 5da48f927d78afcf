package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	cgerrors "github.com/standardbeagle/colorgrep/internal/errors"
)

// Decode parses one inbound message. The raw object is checked against the
// schema for its command before it is unmarshalled, so a message missing a
// required field or carrying a field of the wrong type is rejected rather
// than zero-filled.
func Decode(data []byte) (Inbound, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, cgerrors.NewProtocolError("", fmt.Errorf("not a JSON object: %w", err))
	}

	command, ok := raw["command"].(string)
	if !ok || command == "" {
		return nil, cgerrors.NewProtocolError("", errors.New("missing command"))
	}

	schema, ok := resolvedSchemas[command]
	if !ok {
		return nil, cgerrors.NewProtocolError(command, errors.New("unknown command"))
	}
	if err := schema.Validate(raw); err != nil {
		return nil, cgerrors.NewProtocolError(command, err)
	}

	var msg Inbound
	switch command {
	case CommandSearch:
		msg = &Search{}
	case CommandDeleteHistory:
		msg = &DeleteHistory{}
	case CommandOpenFile:
		msg = &OpenFile{}
	case CommandRequestInitialData:
		msg = &RequestInitialData{}
	case CommandSuggestHistory:
		msg = &SuggestHistory{}
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, cgerrors.NewProtocolError(command, err)
	}
	return deref(msg), nil
}

func deref(msg Inbound) Inbound {
	switch m := msg.(type) {
	case *Search:
		return *m
	case *DeleteHistory:
		return *m
	case *OpenFile:
		return *m
	case *RequestInitialData:
		return *m
	case *SuggestHistory:
		return *m
	}
	return msg
}

// Encode serializes msg with its "command" field first.
func Encode(msg Outbound) (json.RawMessage, error) {
	return encode(msg.Command(), msg)
}

// EncodeInbound serializes a panel message, for clients and tests.
func EncodeInbound(msg Inbound) (json.RawMessage, error) {
	return encode(msg.Command(), msg)
}

func encode(command string, msg any) (json.RawMessage, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", command, err)
	}
	name, err := json.Marshal(command)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"command":`)
	buf.Write(name)
	if rest := bytes.TrimSpace(body[1:]); len(rest) > 1 {
		buf.WriteByte(',')
		buf.Write(rest)
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// EncodeAll serializes msgs as a JSON array.
func EncodeAll(msgs []Outbound) ([]byte, error) {
	encoded := make([]json.RawMessage, 0, len(msgs))
	for _, msg := range msgs {
		raw, err := Encode(msg)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, raw)
	}
	return json.Marshal(encoded)
}

// DecodeOutbound parses one message sent to the panel.
func DecodeOutbound(data []byte) (Outbound, error) {
	var envelope struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, cgerrors.NewProtocolError("", err)
	}

	var err error
	switch envelope.Command {
	case CommandThemeInfo:
		var m ThemeInfo
		err = json.Unmarshal(data, &m)
		return m, wrap(envelope.Command, err)
	case CommandSearchHistory:
		var m SearchHistory
		err = json.Unmarshal(data, &m)
		return m, wrap(envelope.Command, err)
	case CommandBaseDirInfo:
		var m BaseDirInfo
		err = json.Unmarshal(data, &m)
		return m, wrap(envelope.Command, err)
	case CommandSetDisplayStrings:
		var m SetDisplayStrings
		err = json.Unmarshal(data, &m)
		return m, wrap(envelope.Command, err)
	case CommandSearchResult:
		var m SearchResult
		err = json.Unmarshal(data, &m)
		return m, wrap(envelope.Command, err)
	case CommandFocusSearchInput:
		return FocusSearchInput{}, nil
	case CommandHistorySuggestions:
		var m HistorySuggestions
		err = json.Unmarshal(data, &m)
		return m, wrap(envelope.Command, err)
	case CommandError:
		var m Error
		err = json.Unmarshal(data, &m)
		return m, wrap(envelope.Command, err)
	}
	return nil, cgerrors.NewProtocolError(envelope.Command, errors.New("unknown command"))
}

// DecodeAll parses a JSON array of outbound messages.
func DecodeAll(data []byte) ([]Outbound, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, cgerrors.NewProtocolError("", err)
	}
	msgs := make([]Outbound, 0, len(raws))
	for _, raw := range raws {
		msg, err := DecodeOutbound(raw)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func wrap(command string, err error) error {
	if err == nil {
		return nil
	}
	return cgerrors.NewProtocolError(command, err)
}
