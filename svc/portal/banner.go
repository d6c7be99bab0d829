package portal

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
)

var categoryLabels = map[plans.Category]string{
	plans.Conversations: "Conversations",
	plans.DataSources:   "Data sources",
	plans.Users:         "Users",
}

var (
	bannerLanguages = []language.Tag{language.English, language.German, language.French, language.Spanish}
	bannerMatcher   = language.NewMatcher(bannerLanguages)
)

// printerFor picks a number-formatting locale from Accept-Language.
func printerFor(r *http.Request) *message.Printer {
	tag, _ := language.MatchStrings(bannerMatcher, r.Header.Get("Accept-Language"))
	return message.NewPrinter(tag)
}

// GuardBanner renders the usage notice placed around gated content.
// Normal views render nothing.
func GuardBanner(v usage.GuardView, p *message.Printer) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if v.State == usage.GuardNormal {
			return nil
		}

		title := categoryLabels[v.Category]
		var text string
		switch v.State {
		case usage.GuardUnverified:
			text = "Unable to verify usage. Please try again shortly."
		case usage.GuardBlocked:
			text = p.Sprintf("%s limit reached: %d of %s used.", title, v.Usage, limitText(v, p))
		default:
			text = p.Sprintf("%s usage at %.0f%%: %d of %s used.", title, v.Percentage, v.Usage, limitText(v, p))
		}

		if _, err := io.WriteString(w, `<div class="usage-banner usage-banner--`+templ.EscapeString(string(v.State))+
			`" data-category="`+templ.EscapeString(string(v.Category))+`" role="status"><p>`+templ.EscapeString(text)+`</p>`); err != nil {
			return err
		}
		if v.UpgradeTo != "" {
			label := "Upgrade to " + cases.Title(language.English).String(string(v.UpgradeTo))
			if _, err := io.WriteString(w, `<a class="usage-banner__upgrade" href="/pricing?plan=`+
				templ.EscapeString(string(v.UpgradeTo))+`">`+templ.EscapeString(label)+`</a>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

func limitText(v usage.GuardView, p *message.Printer) string {
	if v.Limit == nil {
		return "?"
	}
	n, ok := v.Limit.Value()
	if !ok {
		return "unlimited"
	}
	return p.Sprintf("%d", n)
}
