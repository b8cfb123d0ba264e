package notionsync

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-analytics/internal/analytics"
)

// Property names of the subscriptions database.
const (
	PropName         = "Name"
	PropKey          = "Key"
	PropAmount       = "Amount"
	PropFrequency    = "Frequency"
	PropMonthlyCost  = "Monthly Cost"
	PropOccurrences  = "Occurrences"
	PropLastCharged  = "Last Charged"
	PropNextExpected = "Next Expected"
	PropSample       = "Sample Description"
)

// SubscriptionToNotionProperties maps a detected subscription to a row of
// the subscriptions database. The normalized key identifies the row.
func SubscriptionToNotionProperties(sub analytics.DetectedSubscription) notionapi.Properties {
	props := notionapi.Properties{
		PropName: notionapi.TitleProperty{
			Title: richText(sub.Name),
		},
		PropKey: notionapi.RichTextProperty{
			RichText: richText(sub.NormalizedKey),
		},
		PropAmount:       notionapi.NumberProperty{Number: sub.Amount},
		PropMonthlyCost:  notionapi.NumberProperty{Number: sub.MonthlyCost},
		PropOccurrences:  notionapi.NumberProperty{Number: float64(sub.Occurrences)},
		PropLastCharged:  dateProperty(sub.LastDate),
		PropNextExpected: dateProperty(sub.NextExpectedDate),
	}

	if sub.Frequency != "" {
		props[PropFrequency] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(sub.Frequency)},
		}
	}
	if sub.SampleDescription != "" {
		props[PropSample] = notionapi.RichTextProperty{
			RichText: richText(sub.SampleDescription),
		}
	}

	return props
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

func dateProperty(d civil.Date) notionapi.DateProperty {
	start := notionapi.Date(d.In(time.UTC))
	return notionapi.DateProperty{
		Date: &notionapi.DateObject{Start: &start},
	}
}

// extractKey returns the normalized key stored on a page, or "".
func extractKey(page notionapi.Page) string {
	prop, ok := page.Properties[PropKey]
	if !ok {
		return ""
	}
	switch p := prop.(type) {
	case *notionapi.RichTextProperty:
		return plainText(p.RichText)
	case notionapi.RichTextProperty:
		return plainText(p.RichText)
	}
	return ""
}

func plainText(rt []notionapi.RichText) string {
	if len(rt) == 0 {
		return ""
	}
	if rt[0].PlainText != "" {
		return rt[0].PlainText
	}
	if rt[0].Text != nil {
		return rt[0].Text.Content
	}
	return ""
}
