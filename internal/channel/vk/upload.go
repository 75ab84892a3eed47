package vk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/kinoscout/movie-bot/internal/apperr"
)

// UploadFromURL turns a remote poster image into a VK photo attachment
// reference: obtain an upload server, re-upload the image bytes, then save
// the photo into the messages album.
func (c *Client) UploadFromURL(ctx context.Context, sourceURL, recipientID string) (string, error) {
	uploadURL, err := c.messagesUploadServer(ctx, recipientID)
	if err != nil {
		return "", err
	}

	uploaded, err := c.uploadPhoto(ctx, uploadURL, sourceURL)
	if err != nil {
		return "", err
	}

	return c.saveMessagesPhoto(ctx, uploaded)
}

func (c *Client) messagesUploadServer(ctx context.Context, recipientID string) (string, error) {
	params := url.Values{}
	params.Set("peer_id", recipientID)

	var payload struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.call(ctx, "photos.getMessagesUploadServer", params, &payload); err != nil {
		return "", err
	}
	return payload.UploadURL, nil
}

// uploadedPhoto carries the upload server's receipt into the save call.
type uploadedPhoto struct {
	Server int    `json:"server"`
	Photo  string `json:"photo"`
	Hash   string `json:"hash"`
}

func (c *Client) uploadPhoto(ctx context.Context, uploadURL, sourceURL string) (uploadedPhoto, error) {
	image, err := c.fetchImage(ctx, sourceURL)
	if err != nil {
		return uploadedPhoto{}, err
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("photo", "file.jpg")
	if err != nil {
		return uploadedPhoto{}, fmt.Errorf("vk: build upload form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return uploadedPhoto{}, fmt.Errorf("vk: build upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return uploadedPhoto{}, fmt.Errorf("vk: build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return uploadedPhoto{}, fmt.Errorf("vk: create upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return uploadedPhoto{}, apperr.NewUpstreamError("vk", fmt.Errorf("photo upload failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return uploadedPhoto{}, apperr.NewUpstreamError("vk", fmt.Errorf("photo upload: bad status %d", resp.StatusCode))
	}

	var uploaded uploadedPhoto
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return uploadedPhoto{}, apperr.NewUpstreamError("vk", fmt.Errorf("photo upload: decode receipt: %w", err))
	}
	return uploaded, nil
}

func (c *Client) saveMessagesPhoto(ctx context.Context, uploaded uploadedPhoto) (string, error) {
	params := url.Values{}
	params.Set("server", fmt.Sprintf("%d", uploaded.Server))
	params.Set("photo", uploaded.Photo)
	params.Set("hash", uploaded.Hash)

	var saved []struct {
		ID      int `json:"id"`
		OwnerID int `json:"owner_id"`
	}
	if err := c.call(ctx, "photos.saveMessagesPhoto", params, &saved); err != nil {
		return "", err
	}
	if len(saved) == 0 {
		return "", apperr.NewUpstreamError("vk", fmt.Errorf("photos.saveMessagesPhoto: empty response"))
	}

	return fmt.Sprintf("photo%d_%d", saved[0].OwnerID, saved[0].ID), nil
}

func (c *Client) fetchImage(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("vk: create image request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.NewUpstreamError("vk", fmt.Errorf("fetch image: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.NewUpstreamError("vk", fmt.Errorf("fetch image: bad status %d", resp.StatusCode))
	}

	return io.ReadAll(resp.Body)
}
