package googleDriveApi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/KotFed0t/grant_tracker_bot/config"
	"github.com/KotFed0t/grant_tracker_bot/internal/externalApi"
	"github.com/KotFed0t/grant_tracker_bot/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	appDataFolder   = "appDataFolder"
	jsonContentType = "application/json"
	maxDocumentSize = 10 << 20
)

// GoogleDriveApi stores one JSON document per user in the user's hidden appDataFolder.
// Every call authenticates with the refresh token the user handed to the bot.
type GoogleDriveApi struct {
	oauthCfg *oauth2.Config
	cfg      *config.Config
	opts     []option.ClientOption
}

func New(cfg *config.Config, opts ...option.ClientOption) *GoogleDriveApi {
	if cfg.GoogleDrive.ClientID == "" || cfg.GoogleDrive.ClientSecret == "" {
		slog.Error("google drive client credentials are empty")
		panic("google drive client credentials are empty")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GoogleDrive.ClientID,
		ClientSecret: cfg.GoogleDrive.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveAppdataScope},
	}
	return &GoogleDriveApi{oauthCfg: oauthCfg, cfg: cfg, opts: opts}
}

func (a *GoogleDriveApi) service(ctx context.Context, refreshToken string) (*drive.Service, error) {
	ts := a.oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, a.opts...)
	return drive.NewService(ctx, opts...)
}

// Download returns the content of the named document.
// externalApi.ErrNotFound means the user has no document yet.
func (a *GoogleDriveApi) Download(ctx context.Context, refreshToken, name string) (body []byte, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoogleDriveApi.Download"

	slog.Debug("Download start", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name))
	defer func() {
		if err != nil {
			slog.Error("Download failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("Download completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("bytes", len(body)))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.GoogleDrive.RequestTimeout)
	defer cancel()

	srv, err := a.service(ctx, refreshToken)
	if err != nil {
		return nil, classify("connect", err)
	}

	fileID, err := a.findFile(ctx, srv, name)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, classify("download", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, classify("download", err)
	}

	return body, nil
}

// Upload creates the named document or overwrites its content.
func (a *GoogleDriveApi) Upload(ctx context.Context, refreshToken, name string, body []byte) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "GoogleDriveApi.Upload"

	slog.Debug("Upload start", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", name), slog.Int("bytes", len(body)))
	defer func() {
		if err != nil {
			slog.Error("Upload failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("Upload completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.GoogleDrive.RequestTimeout)
	defer cancel()

	srv, err := a.service(ctx, refreshToken)
	if err != nil {
		return classify("connect", err)
	}

	fileID, err := a.findFile(ctx, srv, name)
	if err != nil && !errors.Is(err, externalApi.ErrNotFound) {
		return err
	}

	media := googleapi.ContentType(jsonContentType)
	if fileID != "" {
		_, err = srv.Files.Update(fileID, &drive.File{}).
			Media(bytes.NewReader(body), media).
			Context(ctx).
			Do()
		return classify("update", err)
	}

	_, err = srv.Files.Create(&drive.File{
		Name:     name,
		MimeType: jsonContentType,
		Parents:  []string{appDataFolder},
	}).
		Media(bytes.NewReader(body), media).
		Context(ctx).
		Do()
	return classify("create", err)
}

func (a *GoogleDriveApi) findFile(ctx context.Context, srv *drive.Service, name string) (string, error) {
	list, err := srv.Files.List().
		Spaces(appDataFolder).
		Q(nameQuery(name)).
		Fields("files(id, name, modifiedTime)").
		OrderBy("modifiedTime desc").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", classify("list", err)
	}
	if len(list.Files) == 0 {
		return "", externalApi.ErrNotFound
	}
	return list.Files[0].Id, nil
}

func nameQuery(name string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(name)
	return fmt.Sprintf("name = '%s' and trashed = false", escaped)
}
