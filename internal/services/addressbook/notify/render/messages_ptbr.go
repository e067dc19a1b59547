package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.MustParse("pt-BR")

	message.SetString(lang, "address.field.label", "rótulo")
	message.SetString(lang, "address.field.street", "rua")
	message.SetString(lang, "address.field.city", "cidade")
	message.SetString(lang, "address.field.postal_code", "CEP")
	message.SetString(lang, "address.field.country", "país")
	message.SetString(lang, "address.created.subject", "Endereço %s adicionado")
	message.SetString(lang, "address.created.body", "O endereço %s foi adicionado à sua agenda.")
	message.SetString(lang, "address.field_changed.subject", "Endereço %s atualizado")
	message.SetString(lang, "address.field_changed.body", "O campo %[2]s do endereço %[1]s mudou de %[3]q para %[4]q.")
	message.SetString(lang, "address.deleted.subject", "Endereço %s removido")
	message.SetString(lang, "address.deleted.body", "O endereço %s foi removido da sua agenda.")
	message.SetString(lang, "address.revert_hint", "Não foi você? Desfaça esta alteração uma vez: %s")
}
