package services

import "strings"

// Canned replies for the turns that never reach the narrator. Keyed by
// message id, then language.
var cannedMessages = map[string]map[string]string{
	"rejected": {
		"en": "I can only run read-only reporting questions over the case dashboard. Try asking about case counts, statuses, offices, or people.",
		"es": "Solo puedo responder consultas de lectura sobre el panel de casos. Prueba preguntando por conteos de casos, estados, oficinas o personas.",
	},
	"failed": {
		"en": "Something went wrong while answering that. Please try rephrasing your question.",
		"es": "Algo salió mal al responder esa pregunta. Intenta formularla de otra manera.",
	},
	"pick_expired": {
		"en": "That selection list has expired. Please ask your question again.",
		"es": "Esa lista de opciones expiró. Vuelve a hacer tu pregunta.",
	},
	"filters_cleared": {
		"en": "Done, I cleared your active filters.",
		"es": "Listo, quité tus filtros activos.",
	},
	"filter_cleared": {
		"en": "Done, I removed the %s filter.",
		"es": "Listo, quité el filtro de %s.",
	},
	"pick_prompt": {
		"en": "I found more than one %s matching that. Which one did you mean?",
		"es": "Encontré más de un resultado para %s. ¿A cuál te refieres?",
	},
	"no_rows": {
		"en": "I did not find any matching records for %s.",
		"es": "No encontré registros para %s.",
	},
	"row_summary": {
		"en": "I found %d matching records for %s.",
		"es": "Encontré %d registros para %s.",
	},
	"clear_filters_action": {
		"en": "Clear filters",
		"es": "Quitar filtros",
	},
}

func canned(key, lang string) string {
	texts, ok := cannedMessages[key]
	if !ok {
		return cannedMessages["failed"]["en"]
	}
	if text, ok := texts[langKey(lang)]; ok {
		return text
	}
	return texts["en"]
}

func langKey(lang string) string {
	if strings.HasPrefix(strings.ToLower(lang), "es") {
		return "es"
	}
	return "en"
}
