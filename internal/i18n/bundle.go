// Package i18n holds the user-facing string tables. Messages use
// {placeholder} substitution; a key absent for the requested language
// falls back to English.
package i18n

import "strings"

const DefaultLanguage = "en"

// Message keys.
const (
	KeyAskMedicine     = "ask.medicine"
	KeyAskTime         = "ask.time"
	KeyAskDosage       = "ask.dosage"
	KeyAskFrequency    = "ask.frequency"
	KeyConfirmSummary  = "confirm.summary"
	KeySaved           = "saved"
	KeyRestart         = "restart"
	KeyTimeout         = "timeout"
	KeyGenericError    = "error.generic"
	KeyMissedTitle     = "missed.title"
	KeyMissedInformed  = "missed.caregiver_informed"
	KeyMissedLocalOnly = "missed.caregiver_failed"
)

var tables = map[string]map[string]string{
	"en": {
		KeyAskMedicine:     "Which medicine should I remind you about?",
		KeyAskTime:         "What time should I remind you to take {medicine}?",
		KeyAskDosage:       "What dosage of {medicine} do you take?",
		KeyAskFrequency:    "How often should you take {medicine}?",
		KeyConfirmSummary:  "I'll remind you to take {medicine} ({dosage}) at {time}, {frequency}. Should I save this reminder?",
		KeySaved:           "Done! Your reminder for {medicine} is saved.",
		KeyRestart:         "Okay, let's start over. Tell me about the medication you want to be reminded of.",
		KeyTimeout:         "I couldn't collect all the details. Please start over and tell me the medicine name and time.",
		KeyGenericError:    "Sorry, something went wrong. Please try again.",
		KeyMissedTitle:     "Missed dose",
		KeyMissedInformed:  "You missed your {time} dose of {medicine}. Your caregiver has been notified.",
		KeyMissedLocalOnly: "You missed your {time} dose of {medicine}. We could not reach your caregiver yet.",
	},
	"es": {
		KeyAskMedicine:     "¿De qué medicamento quieres que te recuerde?",
		KeyAskTime:         "¿A qué hora debo recordarte tomar {medicine}?",
		KeyAskDosage:       "¿Qué dosis de {medicine} tomas?",
		KeyAskFrequency:    "¿Con qué frecuencia debes tomar {medicine}?",
		KeyConfirmSummary:  "Te recordaré tomar {medicine} ({dosage}) a las {time}, {frequency}. ¿Guardo este recordatorio?",
		KeySaved:           "¡Listo! Tu recordatorio de {medicine} está guardado.",
		KeyRestart:         "De acuerdo, empecemos de nuevo. Cuéntame sobre el medicamento que quieres recordar.",
		KeyTimeout:         "No pude reunir todos los datos. Empieza de nuevo con el nombre del medicamento y la hora.",
		KeyGenericError:    "Lo siento, algo salió mal. Inténtalo de nuevo.",
		KeyMissedTitle:     "Dosis omitida",
		KeyMissedInformed:  "Omitiste tu dosis de {medicine} de las {time}. Tu cuidador ha sido notificado.",
		KeyMissedLocalOnly: "Omitiste tu dosis de {medicine} de las {time}. Aún no pudimos avisar a tu cuidador.",
	},
	"hi": {
		KeyAskMedicine:    "मुझे किस दवा के बारे में याद दिलाना चाहिए?",
		KeyAskTime:        "{medicine} लेने के लिए मैं आपको किस समय याद दिलाऊं?",
		KeyAskDosage:      "आप {medicine} की कितनी खुराक लेते हैं?",
		KeyAskFrequency:   "आपको {medicine} कितनी बार लेनी चाहिए?",
		KeyConfirmSummary: "मैं आपको {time} बजे {medicine} ({dosage}) लेने की याद दिलाऊंगा, {frequency}। क्या इसे सेव करूं?",
		KeySaved:          "हो गया! {medicine} का रिमाइंडर सेव हो गया है।",
		KeyGenericError:   "माफ़ करें, कुछ गड़बड़ हो गई। कृपया फिर से कोशिश करें।",
	},
}

// Bundle resolves localized messages with English fallback.
type Bundle struct{}

func NewBundle() *Bundle { return &Bundle{} }

// Message returns the localized string for key, substituting {name}
// placeholders from args.
func (b *Bundle) Message(lang, key string, args map[string]string) string {
	msg := lookup(lang, key)
	if msg == "" {
		return ""
	}
	for name, value := range args {
		msg = strings.ReplaceAll(msg, "{"+name+"}", value)
	}
	return msg
}

// Supported reports whether a string table exists for lang.
func (b *Bundle) Supported(lang string) bool {
	_, ok := tables[normalize(lang)]
	return ok
}

func lookup(lang, key string) string {
	if table, ok := tables[normalize(lang)]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	return tables[DefaultLanguage][key]
}

func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if idx := strings.IndexByte(lang, '-'); idx > 0 {
		lang = lang[:idx]
	}
	return lang
}
