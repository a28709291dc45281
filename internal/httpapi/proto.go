package httpapi

import (
	"mime"
	"net/http"
	"strings"

	"google.golang.org/protobuf/proto"
)

const protobufContentType = "application/x-protobuf"

// wantsProtobuf returns true if any media type in the Accept header names
// a protobuf encoding.
func wantsProtobuf(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mt == protobufContentType || mt == "application/protobuf" {
			return true
		}
	}
	return false
}

// writeProto marshals msg and writes it with the given HTTP status.
func writeProto(w http.ResponseWriter, status int, msg proto.Message) {
	data, err := proto.Marshal(msg)
	if err != nil {
		// Fall back to a plain-text error if marshalling fails.
		http.Error(w, "proto marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", protobufContentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
