package features

import (
	"encoding/binary"

	spooky "github.com/dgryski/go-spooky"
)

func bucketString(value string, buckets int) int {
	return int(spooky.Hash64([]byte(value)) % uint64(buckets))
}

func bucketIDs(ids []int, buckets int) int {
	buf := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(id))
	}
	return int(spooky.Hash64(buf) % uint64(buckets))
}
