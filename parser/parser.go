// Package parser extracts configured fields and product links from HTML.
package parser

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-snax/models"
)

var controlRun = regexp.MustCompile(`[\n\r\t]+`)

// CollapseControl replaces every run of newline, carriage-return and tab
// characters with a single space.
func CollapseControl(text string) string {
	return controlRun.ReplaceAllString(text, " ")
}

// Match returns the nodes under root with the given tag whose attr matches
// value. For class the value may be the whole attribute or a single class.
func Match(root *goquery.Selection, tag, attr, value string) *goquery.Selection {
	return root.Find(tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		actual, ok := s.Attr(attr)
		if !ok {
			return false
		}
		return attrMatches(attr, actual, value)
	})
}

func attrMatches(attr, actual, want string) bool {
	if actual == want {
		return true
	}
	if !strings.EqualFold(attr, "class") {
		return false
	}
	for _, class := range strings.Fields(actual) {
		if class == want {
			return true
		}
	}
	return false
}

// ExtractField reads one field from a parsed page. The boolean is false when
// no node matched; the value is then empty.
func ExtractField(root *goquery.Selection, spec models.FieldSpec) (string, bool) {
	nodes := Match(root, spec.Tag, spec.Attr, spec.Value)
	if nodes.Length() == 0 {
		return "", false
	}

	if spec.Mode == models.ModeMulti {
		var b strings.Builder
		nodes.Each(func(_ int, s *goquery.Selection) {
			b.WriteString(strings.TrimSpace(s.Text()))
			b.WriteByte(' ')
		})
		return CollapseControl(b.String()), true
	}

	return strings.TrimSpace(nodes.First().Text()), true
}

// ExtractLinks returns the href of every anchor matching selector, resolved
// against page when relative. Anchors without an href are skipped.
func ExtractLinks(root *goquery.Selection, selector models.FieldSpec, page *url.URL) []string {
	var links []string
	Match(root, selector.Tag, selector.Attr, selector.Value).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		links = append(links, resolve(page, href))
	})
	return links
}

func resolve(page *url.URL, href string) string {
	if page == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return page.ResolveReference(ref).String()
}
