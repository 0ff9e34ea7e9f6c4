package config

import "fmt"

// Defaults applied when neither a flag nor the config file sets a value.
const (
	DefaultCountdown       = 3
	DefaultDuration        = 60
	DefaultTheme           = "dark"
	DefaultSentenceSource  = "static"
	DefaultLang            = "en"
	DefaultWords           = 12
	DefaultCaps            = 0.0
	DefaultPunct           = 0.0
	DefaultAIModel         = "gemini-1.5-flash"
	DefaultAIKeyEnv        = "GEMINI_API_KEY"
	DefaultAITimeout       = 20
	DefaultRecommendSource = "auto"
	DefaultStoreBackend    = "sqlite"
	DefaultLogLevel        = "info"
	DefaultServerAddr      = ":8080"
)

// Template returns a commented config file listing every key with its default.
func Template() string {
	return fmt.Sprintf(`# %[1]s configuration
# Uncomment a value to enable it. CLI flags override config values.

[test]
# countdown = %[2]d            # Seconds counted down before typing starts
# duration = %[3]d            # Test length in seconds
# theme = %[4]q          # dark or light (ctrl+t toggles while running)
# sound = false            # Ring the terminal bell on a wrong keystroke

[sentences]
# source = %[5]q       # static, file, words or ai
# file = ""                # YAML file with a "sentences" list (source = "file")
# lang = %[6]q             # Word list language (source = "words")
# words = %[7]d              # Words per generated sentence
# caps = %.2[8]f              # Probability of a capitalized word (0-1)
# punct = %.2[9]f             # Punctuation probability per word (0-1)
# wordlist = ""            # Word list path, one word per line. Defaults to
#                          # $XDG_CONFIG_HOME/speedtype/wordlists/<lang>.txt; any frequency list
#                          # works, e.g. a hermitdave/FrequencyWords file cut to its first column.
#                          # Without one, the words source falls back to the built-in sentences.
# fallback = ""            # Sentence used when the source fails

[ai]
# model = %[10]q
# endpoint = ""            # Generative Language API base URL
# api-key-env = %[11]q  # Environment variable holding the API key (.env is read)
# timeout-seconds = %[12]d

[recommend]
# source = %[13]q         # auto, ai or local

[store]
# backend = %[14]q       # sqlite or file
# path = ""                # Result slot location

[log]
# level = %[15]q          # trace, debug, info, warn or error
# file = ""                # Log file (default under the XDG state dir)

[server]
# addr = %[16]q          # Listen address for "%[1]s serve"
`,
		AppName,
		DefaultCountdown,
		DefaultDuration,
		DefaultTheme,
		DefaultSentenceSource,
		DefaultLang,
		DefaultWords,
		DefaultCaps,
		DefaultPunct,
		DefaultAIModel,
		DefaultAIKeyEnv,
		DefaultAITimeout,
		DefaultRecommendSource,
		DefaultStoreBackend,
		DefaultLogLevel,
		DefaultServerAddr,
	)
}
