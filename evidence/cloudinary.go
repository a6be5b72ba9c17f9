package evidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"fitcomp/config"
)

var ErrNotConfigured = errors.New("evidence: cloudinary configuration is missing")

// CloudinaryUploader stores workout evidence photos on Cloudinary.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryUploader(cfg config.CloudinaryConfig) (*CloudinaryUploader, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("evidence: init cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld, folder: strings.Trim(cfg.Folder, "/")}, nil
}

// Upload stores file under the submission id. A second upload for the same
// submission replaces the first.
func (u *CloudinaryUploader) Upload(ctx context.Context, file io.Reader, submissionID string) (string, error) {
	overwrite := true
	res, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       PublicID(submissionID),
		Folder:         u.folder,
		Overwrite:      &overwrite,
		ResourceType:   "image",
		Transformation: "c_limit,h_1600,w_1600",
	})
	if err != nil {
		return "", fmt.Errorf("evidence: upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("evidence: upload: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

func PublicID(submissionID string) string {
	return "submissions/" + submissionID
}

// UploadAvatar stores a square profile picture for userID, replacing any
// previous one.
func (u *CloudinaryUploader) UploadAvatar(ctx context.Context, file io.Reader, userID string) (string, error) {
	overwrite := true
	res, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       "avatars/" + userID,
		Folder:         u.folder,
		Overwrite:      &overwrite,
		ResourceType:   "image",
		Transformation: "c_fill,g_face,h_400,w_400",
	})
	if err != nil {
		return "", fmt.Errorf("evidence: upload avatar: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("evidence: upload avatar: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}
