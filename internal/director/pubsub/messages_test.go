package pubsub

import "testing"

func TestParseMessageAccountSubscribeNoOptions(t *testing.T) {
	raw := []byte(`{"method":"accountSubscribe","params":["SoLXmnP9JvL6vJ7TN1VqtTxqsc2izmPfF9CsMDEuRzJ"]}`)
	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	got, ok := msg.(AccountSubscribeMessage)
	if !ok {
		t.Fatalf("expected AccountSubscribeMessage, got %T", msg)
	}
	if got.Address != "SoLXmnP9JvL6vJ7TN1VqtTxqsc2izmPfF9CsMDEuRzJ" {
		t.Fatalf("Address = %q", got.Address)
	}
}

func TestParseMessageAccountSubscribeWithOptions(t *testing.T) {
	raw := []byte(`{"method":"accountSubscribe","params":["SoLXmnP9JvL6vJ7TN1VqtTxqsc2izmPfF9CsMDEuRzJ",{"encoding":"base58","commitment":"confirmed"}]}`)
	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	got, ok := msg.(AccountSubscribeMessage)
	if !ok || got.Address != "SoLXmnP9JvL6vJ7TN1VqtTxqsc2izmPfF9CsMDEuRzJ" {
		t.Fatalf("got %#v", msg)
	}
}

func TestParseMessageProgramSubscribe(t *testing.T) {
	raw := []byte(`{"method":"programSubscribe","params":["11111111111111111111111111111111",{"filters":[{"dataSize":0}]}]}`)
	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	got, ok := msg.(ProgramSubscribeMessage)
	if !ok || got.ProgramID != "11111111111111111111111111111111" {
		t.Fatalf("got %#v", msg)
	}
}

func TestParseMessageSignatureSubscribe(t *testing.T) {
	raw := []byte(`{"method":"signatureSubscribe","params":["2EBVM6cB8vAAD93Ktr6Vd8p67XPbQzCJX47MpReuiCXJAtcjaxpvWpcg9Ege1Nr5Tk3a2GFrByT7WPBjdsTycY9b",{"commitment":"finalized"}]}`)
	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	got, ok := msg.(SignatureSubscribeMessage)
	if !ok {
		t.Fatalf("got %#v", msg)
	}
	if got.Signature != "2EBVM6cB8vAAD93Ktr6Vd8p67XPbQzCJX47MpReuiCXJAtcjaxpvWpcg9Ege1Nr5Tk3a2GFrByT7WPBjdsTycY9b" {
		t.Fatalf("Signature = %q", got.Signature)
	}
}

func TestParseMessageLogsSubscribeAll(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"method":"logsSubscribe","params":["all"]}`))
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	got, ok := msg.(LogsSubscribeMessage)
	if !ok || got.Filter.Kind != LogsFilterAll {
		t.Fatalf("got %#v", msg)
	}
}

func TestParseMessageLogsSubscribeAllWithVotes(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"method":"logsSubscribe","params":["allWithVotes",{}]}`))
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	got, ok := msg.(LogsSubscribeMessage)
	if !ok || got.Filter.Kind != LogsFilterAllWithVotes {
		t.Fatalf("got %#v", msg)
	}
}

func TestParseMessageLogsSubscribeMentionsDoesNotMatchSingleAddressShape(t *testing.T) {
	raw := []byte(`{"method":"logsSubscribe","params":[{"mentions":["SoLXmnP9JvL6vJ7TN1VqtTxqsc2izmPfF9CsMDEuRzJ"]},{"commitment":"finalized"}]}`)
	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	got, ok := msg.(LogsSubscribeMessage)
	if !ok {
		t.Fatalf("got %#v", msg)
	}
	if got.Filter.Kind != LogsFilterMentions || len(got.Filter.Mentions) != 1 {
		t.Fatalf("Filter = %#v", got.Filter)
	}
	if got.Filter.Mentions[0] != "SoLXmnP9JvL6vJ7TN1VqtTxqsc2izmPfF9CsMDEuRzJ" {
		t.Fatalf("Mentions[0] = %q", got.Filter.Mentions[0])
	}
}

func TestParseMessageNonParametrized(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"method":"accountUnsubscribe","params":[0]}`))
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if _, ok := msg.(AccountUnsubscribeMessage); !ok {
		t.Fatalf("got %#v", msg)
	}

	msg, err = ParseMessage([]byte(`{"method":"slotSubscribe"}`))
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if _, ok := msg.(SlotSubscribeMessage); !ok {
		t.Fatalf("got %#v", msg)
	}
}

func TestParseMessageUnknownMethodIsParseError(t *testing.T) {
	_, err := ParseMessage([]byte(`{"method":"someNewUnsubscribe"}`))
	if err == nil {
		t.Fatalf("expected ParseError")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func TestParseMessageEmptyMentionsIsParseError(t *testing.T) {
	_, err := ParseMessage([]byte(`{"method":"logsSubscribe","params":[{"mentions":[]}]}`))
	if err == nil {
		t.Fatalf("expected ParseError for empty mentions")
	}
}
