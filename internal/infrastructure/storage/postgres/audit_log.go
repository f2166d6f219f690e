package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"portfolio/internal/core/id"
	"portfolio/internal/domain/audit"
)

const auditTable = "sys_audit"

// CompressionAlgo specifies how metadata is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the metadata size above which zstd is used.
const DefaultCompressThreshold = 10 * 1024

// auditRow is the sys_audit row layout.
type auditRow struct {
	ID                 id.ID           `db:"id"`
	Action             audit.Action    `db:"action"`
	EntityType         string          `db:"entity_type"`
	EntityID           id.ID           `db:"entity_id"`
	UserID             *string         `db:"user_id"`
	Metadata           json.RawMessage `db:"metadata"`
	MetadataCompressed []byte          `db:"metadata_compressed"`
	CompressionAlgo    CompressionAlgo `db:"compression_algo"`
	CreatedAt          time.Time       `db:"created_at"`
}

var auditColumns = []string{
	"id", "action", "entity_type", "entity_id", "user_id",
	"metadata", "metadata_compressed", "compression_algo", "created_at",
}

// metadataCodec compresses large metadata payloads.
type metadataCodec struct {
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

func newMetadataCodec(threshold int) (*metadataCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	return &metadataCodec{encoder: encoder, decoder: decoder, threshold: threshold}, nil
}

func (c *metadataCodec) encode(raw json.RawMessage) (plain json.RawMessage, compressed []byte, algo CompressionAlgo) {
	if len(raw) > c.threshold {
		return nil, c.encoder.EncodeAll(raw, nil), CompressionZstd
	}
	return raw, nil, CompressionNone
}

func (c *metadataCodec) decode(r auditRow) (json.RawMessage, error) {
	if r.CompressionAlgo != CompressionZstd || len(r.MetadataCompressed) == 0 {
		return r.Metadata, nil
	}
	out, err := c.decoder.DecodeAll(r.MetadataCompressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress metadata: %w", err)
	}
	return out, nil
}

// AuditLog stores audit entries in sys_audit. Appends join the transaction
// carried by ctx, if any.
type AuditLog struct {
	txm   *TxManager
	codec *metadataCodec
	now   func() time.Time
}

var _ audit.Log = (*AuditLog)(nil)

// NewAuditLog creates the log. threshold <= 0 uses DefaultCompressThreshold.
func NewAuditLog(txm *TxManager, threshold int) (*AuditLog, error) {
	codec, err := newMetadataCodec(threshold)
	if err != nil {
		return nil, err
	}
	return &AuditLog{
		txm:   txm,
		codec: codec,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (l *AuditLog) Append(ctx context.Context, in audit.EntryInput) (audit.Entry, error) {
	e, err := audit.NewEntry(in, l.now())
	if err != nil {
		return audit.Entry{}, err
	}

	sql, args, err := l.insertQuery(e).ToSql()
	if err != nil {
		return audit.Entry{}, fmt.Errorf("build audit insert: %w", err)
	}

	if _, err := l.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return audit.Entry{}, fmt.Errorf("insert audit entry: %w", err)
	}
	return e, nil
}

func (l *AuditLog) insertQuery(e audit.Entry) squirrel.InsertBuilder {
	plain, compressed, algo := l.codec.encode(e.Metadata)
	return builder().
		Insert(auditTable).
		Columns(auditColumns...).
		Values(e.ID, e.Action, e.EntityType, e.EntityID, e.UserID, plain, compressed, algo, e.CreatedAt)
}

func (l *AuditLog) QueryByEntity(ctx context.Context, entityType string, entityID id.ID) ([]audit.Entry, error) {
	sql, args, err := historyQuery(entityType, entityID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, l.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, r := range rows {
		meta, err := l.codec.decode(r)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", r.ID, err)
		}
		entries = append(entries, audit.Entry{
			ID:         r.ID,
			Action:     r.Action,
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			UserID:     r.UserID,
			Metadata:   meta,
			CreatedAt:  r.CreatedAt,
		})
	}
	return entries, nil
}

// historyQuery orders newest first; UUIDv7 ids break timestamp ties.
func historyQuery(entityType string, entityID id.ID) squirrel.SelectBuilder {
	return builder().
		Select(auditColumns...).
		From(auditTable).
		Where(squirrel.Eq{"entity_type": entityType, "entity_id": entityID}).
		OrderBy("created_at DESC", "id DESC")
}
