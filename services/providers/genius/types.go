package genius

type searchResponse struct {
	Response struct {
		Hits []struct {
			Type   string  `json:"type"`
			Result songHit `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

type songHit struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	FullTitle   string `json:"full_title"`
	ArtistNames string `json:"artist_names"`
	URL         string `json:"url"`
}

func (h songHit) description() string {
	return h.FullTitle + " " + h.ArtistNames
}
