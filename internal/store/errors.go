package store

import "errors"

var (
	ErrWorkerNotFound   = errors.New("worker not found")
	ErrNotFaulty        = errors.New("worker is not faulty")
	ErrCampaignNotFound = errors.New("campaign not found")
)
