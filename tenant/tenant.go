// Package tenant resolves caller-supplied documentation namespace identifiers
// to the closed set of namespaces the store is partitioned by.
package tenant

// Key identifies a documentation namespace. The zero value means "all
// namespaces" - no retrieval filter is applied.
type Key string

const (
	KeyNone        Key = ""
	KeySelecty     Key = "selecty"
	KeyResell      Key = "resell"
	KeyGeneral     Key = "general"
	KeyLably       Key = "lably"
	KeyReactFlow   Key = "reactflow"
	KeyDiscordBots Key = "discord-bots"
)

// Context carries the resolved namespace and its display name, used to address
// the documentation set in prompts and fallback messages.
type Context struct {
	Key         Key
	DisplayName string
}

var displayNames = map[Key]string{
	KeySelecty:     "Selecty",
	KeyResell:      "ReSell",
	KeyGeneral:     "DevIT.Software",
	KeyLably:       "Lably",
	KeyReactFlow:   "React Flow",
	KeyDiscordBots: "Discord Bots",
}

// The email and telegram bots share the discord-bots documentation.
var aliases = map[string]Key{
	"email":    KeyDiscordBots,
	"telegram": KeyDiscordBots,
}

// Resolve maps a request-supplied tenant string to a Context. Unknown or empty
// values resolve to the unfiltered Context, never an error.
func Resolve(s string) Context {
	k := Key(s)
	if alias, ok := aliases[s]; ok {
		k = alias
	}
	name, ok := displayNames[k]
	if !ok {
		return Context{Key: KeyNone, DisplayName: "DevIT.Software"}
	}
	return Context{Key: k, DisplayName: name}
}

// Keys returns the valid tenant keys, excluding KeyNone.
func Keys() []Key {
	return []Key{KeySelecty, KeyResell, KeyGeneral, KeyLably, KeyReactFlow, KeyDiscordBots}
}
