// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"fmt"
)

// CommitTimestampError means the account store and the query index were
// last committed at different times, so the index may be stale
type CommitTimestampError struct {
	MetadataTimestamp int64
	BlobTimestamp     int64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"commit timestamp mismatch: %d (metadata) != %d (blob)",
		e.MetadataTimestamp,
		e.BlobTimestamp,
	)
}

// checkCommitTimestamp compares the last commit time of both stores
func (d *Database) checkCommitTimestamp() error {
	metadataTs, err := d.Metadata().GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read index commit timestamp: %w", err)
	}
	// Nothing has been indexed yet
	if metadataTs <= 0 {
		return nil
	}
	blobTs, err := d.Blob().GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read account store commit timestamp: %w", err)
	}
	if blobTs == metadataTs {
		return nil
	}
	return CommitTimestampError{
		MetadataTimestamp: metadataTs,
		BlobTimestamp:     blobTs,
	}
}
