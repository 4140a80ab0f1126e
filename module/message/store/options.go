package store

import "go.mongodb.org/mongo-driver/mongo/options"

func findAfter() *options.FindOneAndUpdateOptions {
	after := options.After
	return &options.FindOneAndUpdateOptions{ReturnDocument: &after}
}
