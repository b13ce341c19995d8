package webhook

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"server/internal/domain"
)

// User-facing messages. The app ships in French first; English covers
// everyone else. Raw provider strings are never shown unmodified, only
// appended to a generic sentence as a last resort.

var catalogMatcher = language.NewMatcher([]language.Tag{
	language.French, // default
	language.English,
})

type messageKey string

const (
	msgEmptyPrompt         messageKey = "empty_prompt"
	msgInsufficientCredits messageKey = "insufficient_credits"
	msgBusy                messageKey = "busy"
	msgContentPolicy       messageKey = "content_policy"
	msgQuota               messageKey = "quota"
	msgInvalid             messageKey = "invalid"
	msgProviderTimeout     messageKey = "provider_timeout"
	msgUnexpected          messageKey = "unexpected"
	msgGenericFailure      messageKey = "generic_failure"
	msgBudgetExceeded      messageKey = "budget_exceeded"

	msgTransportTimedOut messageKey = "transport_timed_out"
	msgTransportNoHost   messageKey = "transport_no_host"
	msgTransportGeneric  messageKey = "transport_generic"

	msgHTTP400     messageKey = "http_400"
	msgHTTP401     messageKey = "http_401"
	msgHTTP403     messageKey = "http_403"
	msgHTTP404     messageKey = "http_404"
	msgHTTP429     messageKey = "http_429"
	msgHTTP5xx     messageKey = "http_5xx"
	msgHTTPDefault messageKey = "http_default"
)

var catalog = map[language.Tag]map[messageKey]string{
	language.French: {
		msgEmptyPrompt:         "Veuillez entrer un prompt.",
		msgInsufficientCredits: "Vous n'avez pas assez de crédits. Veuillez en acheter.",
		msgBusy:                "Une génération est déjà en cours. Veuillez patienter.",
		msgContentPolicy:       "Votre demande ne respecte pas les règles de contenu. Modifiez votre prompt et réessayez.",
		msgQuota:               "Limite de génération atteinte. Veuillez patienter quelques instants.",
		msgInvalid:             "Requête invalide. Vérifiez votre prompt et réessayez.",
		msgProviderTimeout:     "Le service de génération a mis trop de temps à répondre. Réessayez.",
		msgUnexpected:          "Format de réponse inattendu du serveur",
		msgGenericFailure:      "Une erreur est survenue. Veuillez réessayer.",
		msgBudgetExceeded:      "La génération a pris trop de temps et a été annulée. Vos crédits ont été remboursés.",
		msgTransportTimedOut:   "La requête a pris trop de temps. Réessayez.",
		msgTransportNoHost:     "Impossible de se connecter au serveur. Vérifiez votre connexion.",
		msgTransportGeneric:    "Pas de connexion internet. Vérifiez votre connexion.",
		msgHTTP400:             "Requête invalide. Vérifiez votre prompt et réessayez.",
		msgHTTP401:             "Authentification échouée. Vérifiez votre configuration.",
		msgHTTP403:             "Accès refusé. Vérifiez vos permissions.",
		msgHTTP404:             "Service non disponible. Veuillez réessayer plus tard.",
		msgHTTP429:             "Trop de requêtes. Veuillez patienter quelques instants.",
		msgHTTP5xx:             "Erreur serveur. Veuillez réessayer dans quelques instants.",
		msgHTTPDefault:         "Une erreur est survenue. Veuillez réessayer.",
	},
	language.English: {
		msgEmptyPrompt:         "Please enter a prompt.",
		msgInsufficientCredits: "You do not have enough credits. Please purchase more.",
		msgBusy:                "A generation is already running. Please wait.",
		msgContentPolicy:       "Your request violates the content rules. Edit your prompt and try again.",
		msgQuota:               "Generation limit reached. Please wait a moment.",
		msgInvalid:             "Invalid request. Check your prompt and try again.",
		msgProviderTimeout:     "The generation service took too long to respond. Try again.",
		msgUnexpected:          "Unexpected response format from the server",
		msgGenericFailure:      "Something went wrong. Please try again.",
		msgBudgetExceeded:      "The generation took too long and was cancelled. Your credits were refunded.",
		msgTransportTimedOut:   "The request took too long. Try again.",
		msgTransportNoHost:     "Could not reach the server. Check your connection.",
		msgTransportGeneric:    "No internet connection. Check your connection.",
		msgHTTP400:             "Invalid request. Check your prompt and try again.",
		msgHTTP401:             "Authentication failed. Check your configuration.",
		msgHTTP403:             "Access denied. Check your permissions.",
		msgHTTP404:             "Service unavailable. Please try again later.",
		msgHTTP429:             "Too many requests. Please wait a moment.",
		msgHTTP5xx:             "Server error. Please try again shortly.",
		msgHTTPDefault:         "Something went wrong. Please try again.",
	},
}

func lookup(locale string, key messageKey) string {
	tag, _ := language.MatchStrings(catalogMatcher, locale)
	base, _ := tag.Base()
	resolved := language.French
	if base.String() == "en" {
		resolved = language.English
	}
	return catalog[resolved][key]
}

// UserMessage resolves any generation error to a single human-readable
// sentence in the requested locale.
func UserMessage(locale string, err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyPrompt):
		return lookup(locale, msgEmptyPrompt)
	case errors.Is(err, domain.ErrInsufficientCredits):
		return lookup(locale, msgInsufficientCredits)
	case errors.Is(err, domain.ErrGenerationBusy):
		return lookup(locale, msgBusy)
	}

	var ge *domain.GenerationError
	if !errors.As(err, &ge) {
		return lookup(locale, msgGenericFailure)
	}

	switch ge.Category {
	case domain.CategoryContentPolicy:
		return lookup(locale, msgContentPolicy)
	case domain.CategoryQuota:
		if ge.Status != 0 {
			return httpMessage(locale, ge.Status)
		}
		return lookup(locale, msgQuota)
	case domain.CategoryInvalid:
		if ge.Status != 0 {
			return httpMessage(locale, ge.Status)
		}
		return lookup(locale, msgInvalid)
	case domain.CategoryTimeout:
		if ge.Detail == "" && ge.Status == 0 {
			return lookup(locale, msgBudgetExceeded)
		}
		return lookup(locale, msgProviderTimeout)
	case domain.CategoryTransport:
		switch ge.Detail {
		case transportTimedOut:
			return lookup(locale, msgTransportTimedOut)
		case transportNoHost:
			return lookup(locale, msgTransportNoHost)
		default:
			return lookup(locale, msgTransportGeneric)
		}
	case domain.CategoryUnexpected:
		return lookup(locale, msgUnexpected)
	default:
		if ge.Status != 0 {
			return httpMessage(locale, ge.Status)
		}
		if ge.Detail != "" {
			// Last resort: generic sentence with the raw provider text.
			return fmt.Sprintf("%s (%s)", lookup(locale, msgGenericFailure), ge.Detail)
		}
		return lookup(locale, msgGenericFailure)
	}
}

func httpMessage(locale string, status int) string {
	switch {
	case status == 400:
		return lookup(locale, msgHTTP400)
	case status == 401:
		return lookup(locale, msgHTTP401)
	case status == 403:
		return lookup(locale, msgHTTP403)
	case status == 404:
		return lookup(locale, msgHTTP404)
	case status == 429:
		return lookup(locale, msgHTTP429)
	case status >= 500 && status <= 599:
		return lookup(locale, msgHTTP5xx)
	default:
		return lookup(locale, msgHTTPDefault)
	}
}
