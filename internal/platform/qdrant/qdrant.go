package qdrant

import (
	"context"
	"fmt"
	"time"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func New(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect qdrant failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := qdrantclient.NewCollectionsClient(conn).List(pingCtx, &qdrantclient.ListCollectionsRequest{}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping qdrant failed: %w", err)
	}
	return conn, nil
}
