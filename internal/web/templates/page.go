// Package templates renders the HTML shell the browser client boots
// from. Game data never renders server side; the client fetches it
// from the JSON API.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// PageView provides data for the app shell.
type PageView struct {
	Title       string
	Description string
}

// Home returns the single-page app shell.
func Home(view PageView) templ.Component {
	if view.Title == "" {
		view.Title = "Fabled"
	}
	if view.Description == "" {
		view.Description = "An AI-narrated adventure."
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<!doctype html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n"); err != nil {
			return err
		}
		if err := writeTag(w, "title", view.Title); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "<meta name=\"description\" content=\"%s\">\n", templ.EscapeString(view.Description)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "<link rel=\"stylesheet\" href=\"/static/app.css\">\n</head>\n<body>\n<div id=\"app\" data-api-base=\"/api\"></div>\n<script src=\"/static/app.js\" defer></script>\n</body>\n</html>\n"); err != nil {
			return err
		}
		return nil
	})
}

func writeTag(w io.Writer, tag, text string) error {
	_, err := fmt.Fprintf(w, "<%s>%s</%s>\n", tag, templ.EscapeString(text), tag)
	return err
}
