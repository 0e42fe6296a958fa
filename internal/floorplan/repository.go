package floorplan

import (
	"context"
	"fmt"

	"tablebook/internal/shared/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	LoadFloor(ctx context.Context, locationID uuid.UUID) (*Floor, error)
	CreateArea(ctx context.Context, area *Area) error
	CreateTable(ctx context.Context, table *Table) error
	// CreateGroup validates the combined capacity of the member tables before saving.
	CreateGroup(ctx context.Context, group *TableGroup, tableIDs []uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) LoadFloor(ctx context.Context, locationID uuid.UUID) (*Floor, error) {
	db := r.db.WithContext(ctx)

	var areas []Area
	if err := db.Where("location_id = ?", locationID).Order("sort_order ASC").Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("failed to load areas: %w", err)
	}
	var tables []Table
	if err := db.Where("location_id = ?", locationID).Order("sort_order ASC").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}
	var groups []TableGroup
	if err := db.Preload("Tables").Where("location_id = ?", locationID).Order("sort_order ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to load table groups: %w", err)
	}

	return NewFloor(locationID, areas, tables, groups)
}

func (r *repository) CreateArea(ctx context.Context, area *Area) error {
	if area.FillOrder == "" {
		area.FillOrder = FillFirstAvailable
	}
	if !area.FillOrder.IsValid() {
		return errs.New(errs.CodeInvalidConfig, "unknown fill order %q", area.FillOrder)
	}
	return r.db.WithContext(ctx).Create(area).Error
}

func (r *repository) CreateTable(ctx context.Context, table *Table) error {
	if table.MinCapacity == 0 {
		table.MinCapacity = 1
	}
	if err := ValidateTable(table); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(table).Error
}

func (r *repository) CreateGroup(ctx context.Context, group *TableGroup, tableIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var members []Table
		if err := tx.Where("id IN ? AND location_id = ?", tableIDs, group.LocationID).Find(&members).Error; err != nil {
			return fmt.Errorf("failed to load group members: %w", err)
		}
		if len(members) != len(tableIDs) {
			return errs.New(errs.CodeInvalidConfig, "table group references %d tables, %d found", len(tableIDs), len(members))
		}
		if _, _, err := GroupCapacity(members, group.ExtraSeats); err != nil {
			return err
		}
		group.Tables = members
		return tx.Create(group).Error
	})
}
