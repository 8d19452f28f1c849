// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package knack

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

// Asset types accepted by the upload endpoint.
const (
	AssetFile  = "file"
	AssetImage = "image"
)

// Create a record in the object. Returns the created record.
func (c *Client) Create(ctx context.Context, object string, data map[string]any) (map[string]any, error) {
	if object == "" {
		return nil, configErrorf("object key is required")
	}
	var res map[string]any
	if err := c.doJSON(ctx, http.MethodPost, c.URL(ObjectRoute(object, "")), data, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Update the record with the given ID. Returns the updated record.
func (c *Client) Update(ctx context.Context, object, id string, data map[string]any) (map[string]any, error) {
	if object == "" || id == "" {
		return nil, configErrorf("object key and record ID are required")
	}
	var res map[string]any
	if err := c.doJSON(ctx, http.MethodPut, c.URL(ObjectRoute(object, id)), data, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Delete the record with the given ID. The API responds with {"delete": true}.
func (c *Client) Delete(ctx context.Context, object, id string) (map[string]any, error) {
	if object == "" || id == "" {
		return nil, configErrorf("object key and record ID are required")
	}
	var res map[string]any
	if err := c.doJSON(ctx, http.MethodDelete, c.URL(ObjectRoute(object, id)), nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// UploadRequest describes an asset to attach to a file or image field of a
// record.
type UploadRequest struct {
	Object    string
	Field     string
	AssetType string // AssetFile or AssetImage
	RecordID  string // create a new record when empty
	Filename  string
	Content   io.Reader
}

func (r *UploadRequest) validate() error {
	switch {
	case r.Object == "" || r.Field == "":
		return configErrorf("upload needs an object and a field")
	case r.AssetType != AssetFile && r.AssetType != AssetImage:
		return configErrorf("asset type must be '%s' or '%s', got '%s'",
			AssetFile, AssetImage, r.AssetType)
	case r.Filename == "":
		return configErrorf("upload needs a file name")
	case r.Content == nil:
		return configErrorf("upload needs content")
	}
	return nil
}

// Upload an asset, then create or update the record referencing it. Returns
// the created or updated record.
func (c *Client) Upload(ctx context.Context, r UploadRequest) (map[string]any, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", filepath.Base(r.Filename))
	if err != nil {
		return nil, errors.Annotate(err, "failed to create form file")
	}
	n, err := io.Copy(part, r.Content)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read content of %s", r.Filename)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Annotate(err, "failed to finalize form")
	}
	uri := c.URL(AssetRoute(c.config.AppID, r.AssetType))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, &buf)
	if err != nil {
		return nil, errors.Annotate(err, "failed to create request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	logging.Infof(ctx, "uploading %s (%d bytes) to %s", r.Filename, n, uri)
	body, err := c.send(req)
	if err != nil {
		return nil, err
	}
	var asset struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &asset); err != nil {
		return nil, errors.Annotate(err, "failed to decode upload response")
	}
	if asset.ID == "" {
		return nil, errors.Reason("upload response has no asset id: %s", string(body))
	}
	data := map[string]any{r.Field: asset.ID}
	if r.RecordID == "" {
		return c.Create(ctx, r.Object, data)
	}
	data["id"] = r.RecordID
	return c.Update(ctx, r.Object, r.RecordID, data)
}

// UploadFile uploads the content of the file at path. The request's Filename
// defaults to the base name of path.
func (c *Client) UploadFile(ctx context.Context, r UploadRequest, path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open %s", path)
	}
	defer f.Close()
	if r.Filename == "" {
		r.Filename = filepath.Base(path)
	}
	r.Content = f
	return c.Upload(ctx, r)
}

// Download the asset at uri into w. Credentials are sent only when uri is on
// the API host. Returns the number of bytes written.
func (c *Client) Download(ctx context.Context, uri string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return 0, errors.Annotate(err, "failed to create request")
	}
	logging.Debugf(ctx, "GET %s", uri)
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errors.Annotate(err, "failed to download %s", uri)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return 0, &HTTPError{
			Method:     http.MethodGet,
			URL:        uri,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, errors.Annotate(err, "failed to save %s", uri)
	}
	return n, nil
}
