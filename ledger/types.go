package ledger

import (
	"math/big"
	"strings"
	"time"
	"unicode"
)

// IconType enumerates the gift icon designs the contract sells. Values
// match the contract enum positions.
type IconType uint8

const (
	IconHappyBirthday IconType = iota
	IconCongratulations
	IconMerryChristmas
	IconGraduation
)

// iconTypeNames maps contract enum positions to their names.
var iconTypeNames = [...]string{
	IconHappyBirthday:   "HappyBirthday",
	IconCongratulations: "Congratulations",
	IconMerryChristmas:  "MerryChristmas",
	IconGraduation:      "Graduation",
}

// String returns the enum name, or "Unknown" for values the client does
// not recognize.
func (t IconType) String() string {
	if int(t) < len(iconTypeNames) {
		return iconTypeNames[t]
	}
	return "Unknown"
}

// DisplayName splits the camel-cased enum name for presentation:
// "HappyBirthday" becomes "Happy Birthday".
func (t IconType) DisplayName() string {
	name := t.String()
	var b strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IconListing is a catalog entry owned by the ledger.
type IconListing struct {
	ID        uint64
	Type      IconType
	Price     *big.Int
	Available bool
}

// ReceivedGift records an icon gifted to an account.
type ReceivedGift struct {
	IconID uint64
	Sender Address
}

// NoteRecord mirrors a note as stored by the ledger. IsRead and
// IsDeleted only ever transition false to true; IDs are sequence
// positions and are never reused. Deletion is a visibility flag, not
// erasure.
type NoteRecord struct {
	ID        uint64
	Sender    Address
	Recipient Address
	Payload   string
	IsRead    bool
	IsDeleted bool
	Timestamp time.Time
}
