// Package render produces localized notification copy for address actions.
package render

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/addressbook/internal/services/addressbook/notify"
)

// Topic identifies which action a message describes.
type Topic string

const (
	TopicCreated      Topic = "address.created"
	TopicFieldChanged Topic = "address.field_changed"
	TopicDeleted      Topic = "address.deleted"
)

// Input describes one action. Field, Old and New are only read for
// TopicFieldChanged.
type Input struct {
	Topic Topic
	Label string
	Field string
	Old   string
	New   string
	Token string
}

// Output is localized copy for one action.
type Output struct {
	Subject string
	Body    string
}

// Localizer is the minimal message-printer contract required by Render.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Render returns localized copy for in. revertURL is appended to the body.
func Render(loc Localizer, in Input, revertURL string) Output {
	var subject, body string
	switch in.Topic {
	case TopicCreated:
		subject = localize(loc, "address.created.subject", in.Label)
		body = localize(loc, "address.created.body", in.Label)
	case TopicFieldChanged:
		field := localize(loc, "address.field."+strings.ToLower(in.Field))
		subject = localize(loc, "address.field_changed.subject", in.Label)
		body = localize(loc, "address.field_changed.body", in.Label, field, in.Old, in.New)
	case TopicDeleted:
		subject = localize(loc, "address.deleted.subject", in.Label)
		body = localize(loc, "address.deleted.body", in.Label)
	default:
		panic("render: unknown topic " + string(in.Topic))
	}
	return Output{
		Subject: subject,
		Body:    body + "\n\n" + localize(loc, "address.revert_hint", revertURL),
	}
}

func localize(loc Localizer, key string, args ...any) string {
	if loc == nil {
		return key
	}
	return loc.Sprintf(key, args...)
}

// Supported lists the languages with a message catalog. The first entry is
// the fallback.
var Supported = []language.Tag{language.English, language.MustParse("pt-BR")}

var matcher = language.NewMatcher(Supported)

// Match returns the supported language closest to lang.
func Match(lang language.Tag) language.Tag {
	_, index, _ := matcher.Match(lang)
	return Supported[index]
}

// Renderer turns action inputs into messages with revert links under baseURL.
type Renderer struct {
	baseURL string
	lang    language.Tag
	loc     Localizer
}

// NewRenderer returns a renderer printing in the supported language closest
// to lang.
func NewRenderer(baseURL string, lang language.Tag) *Renderer {
	lang = Match(lang)
	return &Renderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		lang:    lang,
		loc:     message.NewPrinter(lang),
	}
}

// Language returns the catalog language messages are printed in.
func (r *Renderer) Language() language.Tag {
	return r.lang
}

// RevertURL returns "<base>/revert/<token>".
func (r *Renderer) RevertURL(token string) string {
	return r.baseURL + "/revert/" + token
}

// Message renders in for recipient to.
func (r *Renderer) Message(to string, in Input) notify.Message {
	out := Render(r.loc, in, r.RevertURL(in.Token))
	return notify.Message{To: to, Subject: out.Subject, Body: out.Body}
}
