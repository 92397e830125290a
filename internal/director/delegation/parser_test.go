package delegation

import (
	"testing"

	"github.com/magicblock-labs/conjunto-director/internal/director/coretypes"
)

// fixture is taken from delegation-program/tests/fixtures/accounts.rs
// via the upstream parser test, pinning the exact byte layout.
var fixture = []byte{
	100, 0, 0, 0, 0, 0, 0, 0, 168, 101, 177, 208, 38, 36, 83, 217, 138,
	159, 42, 183, 213, 78, 109, 216, 63, 161, 136, 242, 27, 0, 117, 150,
	140, 96, 0, 92, 107, 81, 86, 247, 43, 85, 175, 207, 195, 148, 154, 129,
	218, 62, 110, 177, 81, 112, 72, 172, 141, 157, 3, 211, 24, 26, 191, 79,
	101, 191, 48, 19, 105, 181, 70, 132, 4, 0, 0, 0, 0, 0, 0, 0, 48, 117,
	0, 0, 0, 0, 0, 0,
}

func TestParseRecordFixture(t *testing.T) {
	record, err := ParseRecord(fixture)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}

	wantAuthority, err := coretypes.ParseAddress("CLMS5guJDje8BA9tQdd1wXmGmPx5S32yhGztw4xytAYN")
	if err != nil {
		t.Fatalf("parse expected authority: %v", err)
	}
	wantOwner, err := coretypes.ParseAddress("3vAK9JQiDsKoQNwmcfeEng4Cnv22pYuj1ASfso7U4ukF")
	if err != nil {
		t.Fatalf("parse expected owner: %v", err)
	}

	if record.Authority != wantAuthority {
		t.Fatalf("Authority = %s, want %s", record.Authority, wantAuthority)
	}
	if record.Owner != wantOwner {
		t.Fatalf("Owner = %s, want %s", record.Owner, wantOwner)
	}
	if record.DelegationSlot != 4 {
		t.Fatalf("DelegationSlot = %d, want 4", record.DelegationSlot)
	}
	if record.CommitFrequency.Millis != 30_000 {
		t.Fatalf("CommitFrequency = %d, want 30000", record.CommitFrequency.Millis)
	}
}

func TestParseRecordTooShort(t *testing.T) {
	if _, err := ParseRecord(fixture[:minRecordLen-1]); err == nil {
		t.Fatalf("expected ParseError for truncated input")
	}
}

func TestParseRecordUnaligned(t *testing.T) {
	// Prepend a single byte so the record body starts at an odd offset;
	// ParseRecord copies into an owned buffer so this must still parse.
	unaligned := append([]byte{0xff}, fixture...)[1:]
	if _, err := ParseRecord(unaligned); err != nil {
		t.Fatalf("ParseRecord(unaligned): %v", err)
	}
}
