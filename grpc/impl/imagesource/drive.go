package imagesource

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/fastlay-project/fastlay/pkg/assembler"
	"github.com/fastlay-project/fastlay/pkg/imageutil"
)

// Drive reads photos from a Google Drive folder, with the manual directory naming rules.
type Drive struct {
	service  *drive.Service
	folderID string
}

// NewDrive authenticates with a service account credentials file.
func NewDrive(ctx context.Context, credentialsFile string, folderID string) (*Drive, error) {
	service, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Drive{service: service, folderID: folderID}, nil
}

func (d *Drive) Resolve(ctx context.Context, prodCode int) (assembler.Resolved, error) {
	query := fmt.Sprintf("'%s' in parents and name contains '%s' and trashed=false", d.folderID, strconv.Itoa(prodCode))

	var files []*drive.File
	pageToken := ""
	for {
		call := d.service.Files.List().Q(query).Fields("nextPageToken, files(id, name)").Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		r, err := call.Do()
		if err != nil {
			return assembler.Resolved{}, fmt.Errorf("failed to list drive files: %w", err)
		}
		files = append(files, r.Files...)
		pageToken = r.NextPageToken
		if pageToken == "" {
			break
		}
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	name, ok := MatchFile(names, prodCode)
	if !ok {
		return assembler.Resolved{}, fmt.Errorf("%w: product %d in drive folder %s", ErrNotFound, prodCode, d.folderID)
	}
	var fileID string
	for _, f := range files {
		if f.Name == name {
			fileID = f.Id
			break
		}
	}

	resp, err := d.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return assembler.Resolved{}, fmt.Errorf("failed to download drive file %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return assembler.Resolved{}, fmt.Errorf("failed to read drive file %s: %w", fileID, err)
	}
	img, err := imageutil.DecodeBytes(data)
	if err != nil {
		return assembler.Resolved{}, fmt.Errorf("failed to decode drive file %s: %w", name, err)
	}
	return assembler.Resolved{Image: img, Source: "drive:" + fileID}, nil
}
