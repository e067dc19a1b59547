package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "address.field.label", "label")
	message.SetString(lang, "address.field.street", "street")
	message.SetString(lang, "address.field.city", "city")
	message.SetString(lang, "address.field.postal_code", "postal code")
	message.SetString(lang, "address.field.country", "country")
	message.SetString(lang, "address.created.subject", "Address %s added")
	message.SetString(lang, "address.created.body", "The address %s was added to your addressbook.")
	message.SetString(lang, "address.field_changed.subject", "Address %s updated")
	message.SetString(lang, "address.field_changed.body", "The %[2]s of address %[1]s changed from %[3]q to %[4]q.")
	message.SetString(lang, "address.deleted.subject", "Address %s deleted")
	message.SetString(lang, "address.deleted.body", "The address %s was removed from your addressbook.")
	message.SetString(lang, "address.revert_hint", "Not you? Undo this change once: %s")
}
