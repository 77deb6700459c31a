// Package i18n translates rule-engine and condition-evaluator messages
// into the request's language. The original service matches a fixed
// regex pattern set against an already-rendered German string and
// substitutes parameters into the matching translation (§7 "matches a
// fixed pattern set against the German template"); here the message key
// is known at the call site (it's the rule/condition kind producing the
// message), so the match step collapses to a direct map lookup keyed by
// that kind — same fallback behaviour, no regex needed. An unknown key
// or an unsupported language both fall back to the German template,
// exactly as §7 specifies.
package i18n

import "strings"

// Translator renders localised messages from a fixed template set.
type Translator struct {
	templates map[string]map[string]string // key -> lang -> template
}

// New returns a Translator pre-loaded with the rule/condition message
// templates (§4.6, §4.8's "met/not met" annotations).
func New() *Translator {
	return &Translator{templates: defaultTemplates}
}

// Render looks up the template for key, preferring lang and falling back
// to German, then substitutes every {param} placeholder present in
// params. An entirely unknown key renders as the key itself so a missing
// template is visible rather than silently swallowed.
func (t *Translator) Render(lang, key string, params map[string]string) string {
	byLang, ok := t.templates[key]
	if !ok {
		return key
	}
	tmpl, ok := byLang[lang]
	if !ok {
		tmpl = byLang["de"]
	}
	return substitute(tmpl, params)
}

func substitute(tmpl string, params map[string]string) string {
	if len(params) == 0 {
		return tmpl
	}
	for k, v := range params {
		tmpl = strings.ReplaceAll(tmpl, "{"+k+"}", v)
	}
	return tmpl
}

// Message-template keys, shared by internal/rules and internal/conditions
// so both sides of the pipeline address the same fixed pattern set.
const (
	KeyQuantityExceeded           = "rule.quantity_exceeded"
	KeyQuantityReduced            = "rule.quantity_reduced"
	KeySupplementMissing          = "rule.supplement_missing"
	KeyNotCumulable               = "rule.not_cumulable"
	KeyOnlyCumulableViolation     = "rule.only_cumulable_violation"
	KeyPatientContextMissing      = "rule.patient_context_missing"
	KeyPatientAgeViolation        = "rule.patient_age_violation"
	KeyPatientGenderViolation     = "rule.patient_gender_violation"
	KeyPatientMedicationViolation = "rule.patient_medication_violation"
	KeyDiagnosisMissing           = "rule.diagnosis_missing"
	KeyPackageExclusion           = "rule.package_exclusion"
	KeyUnknownRuleType            = "rule.unknown_type"
	KeyInternalRuleError          = "rule.internal_error"

	KeyConditionMet    = "condition.met"
	KeyConditionNotMet = "condition.not_met"

	KeyNoBillableTARDOC = "billing.no_billable_tardoc"
	KeyNoIdentified     = "billing.no_identified"
)

var defaultTemplates = map[string]map[string]string{
	KeyQuantityExceeded: {
		"de": "Mengenbeschränkung überschritten (max. {max}, angefragt {requested})",
		"fr": "Limite de quantité dépassée (max. {max}, demandé {requested})",
		"it": "Limite di quantità superato (max. {max}, richiesto {requested})",
	},
	KeyQuantityReduced: {
		"de": "Menge auf {max} reduziert (angefragt {requested})",
		"fr": "Quantité réduite à {max} (demandé {requested})",
		"it": "Quantità ridotta a {max} (richiesto {requested})",
	},
	KeySupplementMissing: {
		"de": "Nur als Zuschlag zu {codes} zulässig (Basisleistung fehlt)",
		"fr": "Autorisé uniquement en supplément de {codes} (prestation de base manquante)",
		"it": "Consentito solo come supplemento a {codes} (prestazione di base mancante)",
	},
	KeyNotCumulable: {
		"de": "Nicht kumulierbar mit: {codes}",
		"fr": "Non cumulable avec : {codes}",
		"it": "Non cumulabile con: {codes}",
	},
	KeyOnlyCumulableViolation: {
		"de": "Nur kumulierbar mit zugelassenen Leistungen; nicht zugelassen: {codes}",
		"fr": "Cumulable uniquement avec des prestations autorisées ; non autorisé : {codes}",
		"it": "Cumulabile solo con prestazioni autorizzate; non consentito: {codes}",
	},
	KeyPatientContextMissing: {
		"de": "Patientenbedingung ({field}) nicht prüfbar: Kontextwert fehlt",
		"fr": "Condition patient ({field}) non vérifiable : valeur manquante",
		"it": "Condizione paziente ({field}) non verificabile: valore mancante",
	},
	KeyPatientAgeViolation: {
		"de": "Patientenbedingung (Alter) nicht erfüllt ({constraint}, Patient: {actual})",
		"fr": "Condition patient (âge) non remplie ({constraint}, patient : {actual})",
		"it": "Condizione paziente (età) non soddisfatta ({constraint}, paziente: {actual})",
	},
	KeyPatientGenderViolation: {
		"de": "Patientenbedingung (Geschlecht): erwartet '{expected}', gefunden '{actual}'",
		"fr": "Condition patient (sexe) : attendu « {expected} », trouvé « {actual} »",
		"it": "Condizione paziente (sesso): atteso '{expected}', trovato '{actual}'",
	},
	KeyPatientMedicationViolation: {
		"de": "Patientenbedingung (Medikamente/ATC): keines von {codes} vorhanden",
		"fr": "Condition patient (médicaments/ATC) : aucun de {codes} présent",
		"it": "Condizione paziente (farmaci/ATC): nessuno tra {codes} presente",
	},
	KeyDiagnosisMissing: {
		"de": "Erforderliche Diagnose nicht vorhanden (benötigt: {codes})",
		"fr": "Diagnostic requis absent (requis : {codes})",
		"it": "Diagnosi richiesta assente (richiesto: {codes})",
	},
	KeyPackageExclusion: {
		"de": "Nicht zulässig bei gleichzeitiger Abrechnung der Pauschale(n): {codes}",
		"fr": "Non autorisé en cas de facturation simultanée du/des forfait(s) : {codes}",
		"it": "Non consentito in caso di fatturazione simultanea del/dei forfait: {codes}",
	},
	KeyUnknownRuleType: {
		"de": "Unbekannter Regeltyp '{type}' ignoriert",
		"fr": "Type de règle inconnu « {type} » ignoré",
		"it": "Tipo di regola sconosciuto '{type}' ignorato",
	},
	KeyInternalRuleError: {
		"de": "Interner Fehler bei Regelprüfung: {error}",
		"fr": "Erreur interne lors de la vérification de la règle : {error}",
		"it": "Errore interno durante la verifica della regola: {error}",
	},
	KeyConditionMet: {
		"de": "erfüllt",
		"fr": "remplie",
		"it": "soddisfatta",
	},
	KeyConditionNotMet: {
		"de": "nicht erfüllt",
		"fr": "non remplie",
		"it": "non soddisfatta",
	},
	KeyNoBillableTARDOC: {
		"de": "Keine abrechenbaren TARDOC-Leistungen",
		"fr": "Aucune prestation TARDOC facturable",
		"it": "Nessuna prestazione TARDOC fatturabile",
	},
	KeyNoIdentified: {
		"de": "Keine abrechenbaren Leistungen identifiziert",
		"fr": "Aucune prestation facturable identifiée",
		"it": "Nessuna prestazione fatturabile identificata",
	},
}
