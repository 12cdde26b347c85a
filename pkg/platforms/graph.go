package platforms

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// graphBaseURL pins both Graph tenants to one API version so Instagram and
// Facebook upgrade together.
const graphBaseURL = "https://graph.facebook.com/v19.0"

// graphTime parses the Graph API's ISO-8601 variant. Graph returns offsets
// without a colon ("+0000"), which the stock RFC 3339 parser rejects.
type graphTime struct {
	time.Time
}

func (t *graphTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized graph timestamp %q", s)
}

// graphPaging is the cursor block shared by Instagram and Facebook comment
// responses. A non-empty Next URL means another page exists.
type graphPaging struct {
	Cursors struct {
		After string `json:"after"`
	} `json:"cursors"`
	Next string `json:"next"`
}

func (p graphPaging) hasMore() bool {
	return p.Next != ""
}

// graphList is the data/paging envelope Graph edge listings share. Data
// stays raw so each record keeps its original provider payload.
type graphList struct {
	Data   []json.RawMessage `json:"data"`
	Paging graphPaging       `json:"paging"`
}
