package stage1

import (
	"fmt"
	"strings"
)

// systemPrompts holds the per-language instruction block. Each variant
// encodes the same four hard rules from §4.4 in that language, since the
// model follows instructions in the request's own language far more
// reliably than a translated afterthought.
var systemPrompts = map[string]string{
	"de": `Du bist ein Experte für die Schweizer Tarifstruktur TARDOC. Analysiere den folgenden Text und gib ausschliesslich ein JSON-Objekt der Form
{"identified_leistungen":[{"lkn":"...","typ":"...","menge":1}],"extracted_info":{"dauer_minuten":0,"menge_allgemein":1,"alter":0,"geschlecht":"unbekannt","seitigkeit":"","anzahl_prozeduren":1},"begruendung_llm":"..."}
zurück. Regeln:
1. Eine Konsultation mit Gesamtdauer D Minuten (D>5) wird immer als genau 1x*.00.0010 + (D-5)x*.00.0020 verschlüsselt; verwende das Kapitel CA, falls "Hausarzt" erwähnt wird, sonst AA.
2. Bei zeitabhängigen Nicht-Konsultations-Leistungen gilt menge = aufgerundet(dauer / einheit).
3. Ohne explizite Anzahl gilt menge=1.
4. Bei "beidseits"/"bilateral" für eine unilateral definierte Leistung gilt menge=2.
Kontextkandidaten (LKN: Beschreibung):
%s`,
	"fr": `Vous êtes un expert de la structure tarifaire suisse TARDOC. Analysez le texte et renvoyez uniquement un objet JSON de la forme
{"identified_leistungen":[{"lkn":"...","typ":"...","menge":1}],"extracted_info":{"dauer_minuten":0,"menge_allgemein":1,"alter":0,"geschlecht":"inconnu","seitigkeit":"","anzahl_prozeduren":1},"begruendung_llm":"..."}
Règles: 1) une consultation de durée totale D minutes (D>5) s'encode toujours en exactement 1x*.00.0010 + (D-5)x*.00.0020, chapitre CA si "médecin de famille" est mentionné, sinon AA. 2) pour les prestations non-consultation basées sur la durée, menge = plafond(durée / unité). 3) sans quantité explicite, menge=1. 4) "des deux côtés"/bilatéral pour une prestation unilatérale donne menge=2.
Candidats de contexte (LKN : description) :
%s`,
	"it": `Sei un esperto della struttura tariffaria svizzera TARDOC. Analizza il testo e restituisci esclusivamente un oggetto JSON della forma
{"identified_leistungen":[{"lkn":"...","typ":"...","menge":1}],"extracted_info":{"dauer_minuten":0,"menge_allgemein":1,"alter":0,"geschlecht":"sconosciuto","seitigkeit":"","anzahl_prozeduren":1},"begruendung_llm":"..."}
Regole: 1) una consultazione di durata totale D minuti (D>5) si codifica sempre come esattamente 1x*.00.0010 + (D-5)x*.00.0020, capitolo CA se viene menzionato il "medico di famiglia", altrimenti AA. 2) per prestazioni non di consultazione basate sul tempo, menge = arrotondamento per eccesso(durata / unità). 3) senza quantità esplicita, menge=1. 4) "bilaterale" per una prestazione unilaterale implica menge=2.
Candidati di contesto (LKN: descrizione):
%s`,
}

// BuildPrompt renders the system prompt for lang (falling back to German
// for any other value) with the ranked context window inlined.
func BuildPrompt(lang string, contextLines []string) string {
	tmpl, ok := systemPrompts[lang]
	if !ok {
		tmpl = systemPrompts["de"]
	}
	return fmt.Sprintf(tmpl, strings.Join(contextLines, "\n"))
}
