package spotify

type serverTimeResponse struct {
	ServerTime int64 `json:"serverTime"`
}

type tokenResponse struct {
	ClientID     string `json:"clientId"`
	AccessToken  string `json:"accessToken"`
	ExpirationMs int64  `json:"accessTokenExpirationTimestampMs"`
	IsAnonymous  bool   `json:"isAnonymous"`
}

// colorLyricsResponse is the payload of the color-lyrics endpoint
type colorLyricsResponse struct {
	Lyrics struct {
		SyncType string `json:"syncType"`
		Provider string `json:"provider"`
		Language string `json:"language"`
		Lines    []struct {
			StartTimeMs string `json:"startTimeMs"`
			Words       string `json:"words"`
			EndTimeMs   string `json:"endTimeMs"`
		} `json:"lines"`
	} `json:"lyrics"`
}

// trackMeta is read from the og: tags of a track page
type trackMeta struct {
	Title       string
	Description string
	Image       string
}

func (m trackMeta) description() string {
	return m.Title + " " + m.Description
}
