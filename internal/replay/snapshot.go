package replay

import (
	"ascension-server/internal/domain"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ExportSnapshot сериализует снапшот в JSON. Несогласованный снапшот не экспортируется.
func ExportSnapshot(snap domain.RunSnapshot) ([]byte, error) {
	if err := ValidateSnapshot(snap); err != nil {
		return nil, err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// ImportSnapshot читает JSON снапшота. Версия проверяется до разбора остального,
// битые числа не ошибка: их зажмет Restore.
func ImportSnapshot(data []byte) (domain.RunSnapshot, error) {
	var head struct {
		SnapshotVersion *int `json:"snapshotVersion"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return domain.RunSnapshot{}, domain.NewSchemaError(fmt.Errorf("invalid snapshot format: %w", err))
	}
	if head.SnapshotVersion == nil {
		return domain.RunSnapshot{}, domain.NewSchemaError(errors.New("snapshotVersion is required"))
	}
	if *head.SnapshotVersion != domain.SnapshotVersion {
		return domain.RunSnapshot{}, fmt.Errorf("%w: snapshot v%d, supported v%d",
			domain.ErrVersionMismatch, *head.SnapshotVersion, domain.SnapshotVersion)
	}

	var snap domain.RunSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.RunSnapshot{}, domain.NewSchemaError(fmt.Errorf("invalid snapshot payload: %w", err))
	}
	if err := ValidateSnapshot(snap); err != nil {
		return domain.RunSnapshot{}, err
	}
	return snap, nil
}

// ValidateSnapshot - структурная согласованность снапшота, все нарушения сразу
func ValidateSnapshot(snap domain.RunSnapshot) error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if snap.SnapshotVersion != domain.SnapshotVersion {
		add("snapshotVersion %d, supported %d", snap.SnapshotVersion, domain.SnapshotVersion)
	}
	run := snap.Run
	if run.RunID == "" {
		add("run.runId is required")
	}
	if run.OriginPathID == "" || run.RunPathID == "" {
		add("run.originPathId and run.runPathId are required")
	}
	if run.Seed != snap.Seed {
		add("seed %d does not match run.seed %d", snap.Seed, run.Seed)
	}
	if snap.FloorIndex != run.FloorIndex {
		add("floorIndex %d does not match run.floorIndex %d", snap.FloorIndex, run.FloorIndex)
	}
	for i, u := range run.Upgrades {
		if u.ID == "" {
			add("run.upgrades[%d].id is required", i)
		}
	}

	switch snap.Phase {
	case domain.PhaseBattle:
		if snap.Battle == nil || snap.Player == nil || snap.Enemy == nil {
			add("phase battle needs battle, player and enemy blocks")
		}
	case domain.PhaseDraft:
		if snap.Draft == nil {
			add("phase draft needs a draft offer")
		}
	case domain.PhaseShop:
		if snap.Shop == nil {
			add("phase shop needs a shop inventory")
		}
	case domain.PhaseBargain:
		if snap.Bargain == nil {
			add("phase bargain needs a bargain offer")
		}
	case domain.PhaseIdle:
		add("idle session has nothing to snapshot")
	}

	if len(snap.Events) > 0 {
		if err := Validate(snap.Events); err != nil {
			var schema *domain.SchemaError
			if errors.As(err, &schema) {
				for _, v := range schema.Violations {
					add("events: %s", v)
				}
			}
		}
	}
	return domain.NewSchemaError(errs)
}
