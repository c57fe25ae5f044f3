package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/complykit/screendiff/pkg/errors"
	"github.com/complykit/screendiff/pkg/logging"
)

// DecodeResponse decodes a JSON response into the target structure. A
// non-200 status becomes an APIError carrying the response body.
func DecodeResponse(source string, resp *http.Response, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &errors.APIError{
			Source:     source,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}

	return nil
}
