package core

import (
	"errors"
	"testing"
)

func TestValidateShowRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *ShowRecord
		wantErr error
	}{
		{
			name: "valid record",
			record: &ShowRecord{
				RecordID:  "1",
				TitleMain: "Cowboy Bebop",
				BeginYear: 1998,
				EndYear:   1999,
				Rating:    861,
			},
			wantErr: nil,
		},
		{
			name: "valid record with only begin year",
			record: &ShowRecord{
				RecordID:  "2",
				TitleMain: "Serial Experiments Lain",
				BeginYear: 1998,
			},
			wantErr: nil,
		},
		{
			name: "valid record with no years",
			record: &ShowRecord{
				RecordID:  "3",
				TitleMain: "Untitled Pilot",
			},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidShowRecord,
		},
		{
			name: "empty record id",
			record: &ShowRecord{
				RecordID:  "",
				TitleMain: "Cowboy Bebop",
			},
			wantErr: ErrEmptyRecordID,
		},
		{
			name: "whitespace record id",
			record: &ShowRecord{
				RecordID:  "   ",
				TitleMain: "Cowboy Bebop",
			},
			wantErr: ErrEmptyRecordID,
		},
		{
			name: "empty title",
			record: &ShowRecord{
				RecordID:  "1",
				TitleMain: " ",
			},
			wantErr: ErrEmptyTitle,
		},
		{
			name: "negative episode count",
			record: &ShowRecord{
				RecordID:           "1",
				TitleMain:          "Cowboy Bebop",
				EpisodeCountNormal: -1,
			},
			wantErr: ErrNegativeEpisodeCount,
		},
		{
			name: "rating above scale",
			record: &ShowRecord{
				RecordID:  "1",
				TitleMain: "Cowboy Bebop",
				Rating:    1001,
			},
			wantErr: ErrRatingOutOfRange,
		},
		{
			name: "end year before begin year",
			record: &ShowRecord{
				RecordID:  "1",
				TitleMain: "Cowboy Bebop",
				BeginYear: 2000,
				EndYear:   1990,
			},
			wantErr: ErrEndYearBeforeBeginYear,
		},
		{
			name: "end year without begin year",
			record: &ShowRecord{
				RecordID:  "1",
				TitleMain: "Cowboy Bebop",
				EndYear:   1999,
			},
			wantErr: ErrEndYearWithoutBeginYear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShowRecord(tt.record)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateShowRecord() unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateShowRecord() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidShowRecord) {
				t.Errorf("ValidateShowRecord() error %v does not wrap ErrInvalidShowRecord", err)
			}
		})
	}
}
