package i18n

// Values are inserted with |safe: messages are written as text nodes, never
// as markup, so HTML escaping would only corrupt labels.
var defaultCatalog = Catalog{
	"en": {
		ValidationRequired: `{% if count == 1 %}The field {{ fields|safe }} is required{% else %}The following fields are required: {{ fields|safe }}{% endif %}`,
		ValidationInvalid:  `{% if count == 1 %}The field {{ fields|safe }} is invalid{% else %}The following fields are invalid: {{ fields|safe }}{% endif %}`,
		SaveConfirm:        `{{ message|default:"The server asks for a confirmation. Continue?"|safe }}`,
		SaveCancelled:      `Save cancelled`,
		SaveFailed:         `Saving failed: {{ error|safe }}`,
		TransformFailed:    `The editor {{ key|safe }} could not be loaded: {{ error|safe }}`,
		MissingEditor:      `No editor named {{ key|safe }}`,
		IntervalInvalid:    `The start date must precede the end date`,
	},
	"fr": {
		ValidationRequired: `{% if count == 1 %}Le champ {{ fields|safe }} est obligatoire{% else %}Les champs suivants sont obligatoires : {{ fields|safe }}{% endif %}`,
		ValidationInvalid:  `{% if count == 1 %}Le champ {{ fields|safe }} est invalide{% else %}Les champs suivants sont invalides : {{ fields|safe }}{% endif %}`,
		SaveConfirm:        `{{ message|default:"Le serveur demande une confirmation. Continuer ?"|safe }}`,
		SaveCancelled:      `Enregistrement annulé`,
		SaveFailed:         `Échec de l'enregistrement : {{ error|safe }}`,
		TransformFailed:    `L'éditeur {{ key|safe }} n'a pas pu être chargé : {{ error|safe }}`,
		MissingEditor:      `Aucun éditeur nommé {{ key|safe }}`,
		IntervalInvalid:    `La date de début doit précéder la date de fin`,
	},
}
