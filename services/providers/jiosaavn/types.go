package jiosaavn

import (
	"html"
	"strings"
)

type searchResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Total   int    `json:"total"`
		Results []song `json:"results"`
	} `json:"data"`
}

type song struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	Artists struct {
		All []struct {
			Name string `json:"name"`
		} `json:"all"`
	} `json:"artists"`
}

// description is "name album artist1 artist2 ..."
func (s song) description() string {
	parts := []string{s.Name, s.Album.Name}
	for _, a := range s.Artists.All {
		parts = append(parts, a.Name)
	}
	return html.UnescapeString(strings.Join(parts, " "))
}

type lyricsResponse struct {
	Lyrics    string `json:"lyrics"`
	Copyright string `json:"lyrics_copyright"`
	Snippet   string `json:"snippet"`
}
