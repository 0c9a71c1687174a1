package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"datamanageapi/models"
	"datamanageapi/pkg/logger"
	"datamanageapi/repository"
)

// DatamanageService provides the dataset commands: each call validates the
// request against the acting user, then runs the mutation in a transaction.
type DatamanageService interface {
	Get(ctx context.Context, id uint) (*models.Datamanage, error)
	List(ctx context.Context, page, pageSize int) ([]models.Datamanage, int64, error)

	// Create registers a new dataset. The acting user is always added to the
	// owner list.
	Create(ctx context.Context, user *models.User, req models.DatamanageCreateRequest) (*models.Datamanage, error)

	// Update mutates an existing dataset. Column and metric sets in the
	// request replace the stored ones. When overrideColumns is set, the
	// column-name collision check is skipped because the stored columns are
	// being overwritten wholesale.
	Update(ctx context.Context, user *models.User, id uint, req models.DatamanageUpdateRequest, overrideColumns bool) (*models.Datamanage, error)

	// Delete removes a dataset with its columns, metrics and association rows.
	Delete(ctx context.Context, user *models.User, id uint) error
}

type datamanageService struct {
	baseRepo repository.BaseRepository
	dmRepo   repository.DatamanageRepository
	dbRepo   repository.DatabaseRepository
	userRepo repository.UserRepository
}

// NewDatamanageService creates a new dataset command service instance.
func NewDatamanageService() DatamanageService {
	return &datamanageService{
		baseRepo: repository.NewBaseRepository(),
		dmRepo:   repository.NewDatamanageRepository(),
		dbRepo:   repository.NewDatabaseRepository(),
		userRepo: repository.NewUserRepository(),
	}
}

// NewDatamanageServiceWithDeps creates a service instance with injected dependencies.
// Used for testing to provide mock implementations of repositories.
func NewDatamanageServiceWithDeps(
	baseRepo repository.BaseRepository,
	dmRepo repository.DatamanageRepository,
	dbRepo repository.DatabaseRepository,
	userRepo repository.UserRepository,
) DatamanageService {
	return &datamanageService{
		baseRepo: baseRepo,
		dmRepo:   dmRepo,
		dbRepo:   dbRepo,
		userRepo: userRepo,
	}
}

func (s *datamanageService) Get(ctx context.Context, id uint) (*models.Datamanage, error) {
	dm, err := s.dmRepo.GetByID(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load datamanage %d: %w", id, err)
	}
	return dm, nil
}

func (s *datamanageService) List(ctx context.Context, page, pageSize int) ([]models.Datamanage, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.dmRepo.List(nil, (page-1)*pageSize, pageSize)
}

func (s *datamanageService) Create(ctx context.Context, user *models.User, req models.DatamanageCreateRequest) (*models.Datamanage, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}

	verr := &ValidationError{}

	if _, err := s.dbRepo.GetByID(nil, req.DatabaseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			verr.Add(fmt.Sprintf("database %d was not found", req.DatabaseID))
		} else {
			return nil, fmt.Errorf("failed to load database %d: %w", req.DatabaseID, err)
		}
	}

	count, err := s.dmRepo.CountByDatabaseIDAndName(nil, req.DatabaseID, req.Name, 0)
	if err != nil {
		return nil, fmt.Errorf("uniqueness check failed: %w", err)
	}
	if count > 0 {
		verr.Add(fmt.Sprintf("a datamanage named %q already exists in this database", req.Name))
	}

	if dups := duplicateNames(columnNames(req.Columns)); len(dups) > 0 {
		verr.Add("duplicate column names: " + strings.Join(dups, ", "))
	}
	if dups := duplicateNames(metricNames(req.Metrics)); len(dups) > 0 {
		verr.Add("duplicate metric names: " + strings.Join(dups, ", "))
	}

	owners, err := s.populateOwners(req.Owners, verr)
	if err != nil {
		return nil, err
	}
	owners = appendUser(owners, user)

	if verr.HasIssues() {
		return nil, verr
	}

	dm := &models.Datamanage{
		UUID:        uuid.NewString(),
		DatabaseID:  req.DatabaseID,
		Name:        req.Name,
		Expression:  req.Expression,
		ExternalURL: req.ExternalURL,
		IsPhysical:  req.IsPhysical,
		Params:      req.Params,
		Columns:     columnsFromSpecs(req.Columns, nil),
		Metrics:     metricsFromSpecs(req.Metrics, nil),
		Owners:      owners,
	}

	tx := s.baseRepo.Begin()
	if err := s.dmRepo.Create(tx, dm); err != nil {
		logger.Errorf("Failed to create datamanage %q: %v", req.Name, err)
		tx.Rollback()
		return nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Failed to commit datamanage creation %q: %v", req.Name, err)
		tx.Rollback()
		return nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	logger.Infof("Created datamanage %q (id=%d) in database %d", dm.Name, dm.ID, dm.DatabaseID)
	return dm, nil
}

func (s *datamanageService) Update(ctx context.Context, user *models.User, id uint, req models.DatamanageUpdateRequest, overrideColumns bool) (*models.Datamanage, error) {
	dm, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := raiseForOwnership(user, dm); err != nil {
		return nil, err
	}

	verr := &ValidationError{}

	// A dataset can never move between databases.
	if req.DatabaseID != 0 && req.DatabaseID != dm.DatabaseID {
		verr.Add("database cannot be changed on an existing datamanage")
	}

	name := dm.Name
	if req.Name != "" {
		name = req.Name
	}
	count, err := s.dmRepo.CountByDatabaseIDAndName(nil, dm.DatabaseID, name, dm.ID)
	if err != nil {
		return nil, fmt.Errorf("uniqueness check failed: %w", err)
	}
	if count > 0 {
		verr.Add(fmt.Sprintf("a datamanage named %q already exists in this database", name))
	}

	var owners []models.User
	if req.Owners != nil {
		owners, err = s.populateOwners(req.Owners, verr)
		if err != nil {
			return nil, err
		}
	}

	if req.Columns != nil {
		if err := s.validateColumns(dm, req.Columns, overrideColumns, verr); err != nil {
			return nil, err
		}
	}
	if req.Metrics != nil {
		if err := s.validateMetrics(dm, req.Metrics, verr); err != nil {
			return nil, err
		}
	}

	if verr.HasIssues() {
		return nil, verr
	}

	applyUpdate(dm, req)

	tx := s.baseRepo.Begin()
	if err := s.applyAssociations(tx, dm, req, owners); err != nil {
		logger.Errorf("Failed to update datamanage %d associations: %v", dm.ID, err)
		tx.Rollback()
		return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	if err := s.dmRepo.Save(tx, dm); err != nil {
		logger.Errorf("Failed to update datamanage %d: %v", dm.ID, err)
		tx.Rollback()
		return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Failed to commit datamanage %d update: %v", dm.ID, err)
		tx.Rollback()
		return nil, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	logger.Infof("Updated datamanage %q (id=%d)", dm.Name, dm.ID)
	return dm, nil
}

func (s *datamanageService) Delete(ctx context.Context, user *models.User, id uint) error {
	dm, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := raiseForOwnership(user, dm); err != nil {
		return err
	}

	tx := s.baseRepo.Begin()
	if err := s.dmRepo.Delete(tx, dm); err != nil {
		logger.Errorf("Failed to delete datamanage %d: %v", id, err)
		tx.Rollback()
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Failed to commit datamanage %d deletion: %v", id, err)
		tx.Rollback()
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	logger.Infof("Deleted datamanage %q (id=%d)", dm.Name, dm.ID)
	return nil
}

// raiseForOwnership rejects mutations from users that neither own the dataset
// nor carry the admin role.
func raiseForOwnership(user *models.User, dm *models.Datamanage) error {
	if user == nil {
		return ErrUnauthorized
	}
	if user.IsAdmin() || dm.OwnedBy(user.ID) {
		return nil
	}
	return ErrForbidden
}

// populateOwners resolves owner ids to user records, recording an issue for
// every id that does not exist.
func (s *datamanageService) populateOwners(ids []uint, verr *ValidationError) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := s.userRepo.GetByIDs(nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load owners: %w", err)
	}
	found := make(map[uint]bool, len(users))
	for _, u := range users {
		found[u.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			verr.Add(fmt.Sprintf("owner %d was not found", id))
		}
	}
	return users, nil
}

func (s *datamanageService) validateColumns(dm *models.Datamanage, columns []models.ColumnSpec, overrideColumns bool, verr *ValidationError) error {
	if dups := duplicateNames(columnNames(columns)); len(dups) > 0 {
		verr.Add("duplicate column names: " + strings.Join(dups, ", "))
		return nil
	}

	var ids []uint
	var newNames []string
	for _, col := range columns {
		if col.ID != nil {
			ids = append(ids, *col.ID)
		} else {
			newNames = append(newNames, col.ColumnName)
		}
	}
	owned, err := s.dmRepo.CountOwnedColumns(nil, dm.ID, ids)
	if err != nil {
		return fmt.Errorf("column ownership check failed: %w", err)
	}
	if owned != int64(len(ids)) {
		verr.Add("one or more columns do not belong to this datamanage")
	}
	if !overrideColumns {
		colliding, err := s.dmRepo.CountColumnsByName(nil, dm.ID, newNames)
		if err != nil {
			return fmt.Errorf("column uniqueness check failed: %w", err)
		}
		if colliding > 0 {
			verr.Add("one or more columns already exist on this datamanage")
		}
	}
	return nil
}

func (s *datamanageService) validateMetrics(dm *models.Datamanage, metrics []models.MetricSpec, verr *ValidationError) error {
	if dups := duplicateNames(metricNames(metrics)); len(dups) > 0 {
		verr.Add("duplicate metric names: " + strings.Join(dups, ", "))
		return nil
	}

	var ids []uint
	var newNames []string
	for _, m := range metrics {
		if m.ID != nil {
			ids = append(ids, *m.ID)
		} else {
			newNames = append(newNames, m.MetricName)
		}
	}
	owned, err := s.dmRepo.CountOwnedMetrics(nil, dm.ID, ids)
	if err != nil {
		return fmt.Errorf("metric ownership check failed: %w", err)
	}
	if owned != int64(len(ids)) {
		verr.Add("one or more metrics do not belong to this datamanage")
	}
	colliding, err := s.dmRepo.CountMetricsByName(nil, dm.ID, newNames)
	if err != nil {
		return fmt.Errorf("metric uniqueness check failed: %w", err)
	}
	if colliding > 0 {
		verr.Add("one or more metrics already exist on this datamanage")
	}
	return nil
}

func (s *datamanageService) applyAssociations(tx *gorm.DB, dm *models.Datamanage, req models.DatamanageUpdateRequest, owners []models.User) error {
	if req.Columns != nil {
		existing := make(map[uint]models.Column, len(dm.Columns))
		for _, c := range dm.Columns {
			existing[c.ID] = c
		}
		if err := s.dmRepo.ReplaceColumns(tx, dm, columnsFromSpecs(req.Columns, existing)); err != nil {
			return err
		}
	}
	if req.Metrics != nil {
		existing := make(map[uint]models.Metric, len(dm.Metrics))
		for _, m := range dm.Metrics {
			existing[m.ID] = m
		}
		if err := s.dmRepo.ReplaceMetrics(tx, dm, metricsFromSpecs(req.Metrics, existing)); err != nil {
			return err
		}
	}
	if req.Owners != nil {
		if err := s.dmRepo.ReplaceOwners(tx, dm, owners); err != nil {
			return err
		}
	}
	return nil
}

// applyUpdate copies the scalar fields of the request onto the model.
func applyUpdate(dm *models.Datamanage, req models.DatamanageUpdateRequest) {
	if req.Name != "" {
		dm.Name = req.Name
	}
	if req.Expression != nil {
		dm.Expression = *req.Expression
	}
	if req.ExternalURL != nil {
		dm.ExternalURL = *req.ExternalURL
	}
	if req.IsPhysical != nil {
		dm.IsPhysical = *req.IsPhysical
	}
	if req.IsManagedExternally != nil {
		dm.IsManagedExternally = *req.IsManagedExternally
	}
	if req.Params != nil {
		dm.Params = *req.Params
	}
	if req.TemplateParams != nil {
		dm.TemplateParams = *req.TemplateParams
	}
	if req.Extra != nil {
		dm.Extra = *req.Extra
	}
}

// duplicateNames returns every name appearing more than once, preserving
// first-seen order.
func duplicateNames(names []string) []string {
	counts := make(map[string]int, len(names))
	for _, name := range names {
		counts[name]++
	}
	var dups []string
	seen := make(map[string]bool)
	for _, name := range names {
		if counts[name] > 1 && !seen[name] {
			dups = append(dups, name)
			seen[name] = true
		}
	}
	return dups
}

func columnNames(columns []models.ColumnSpec) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.ColumnName
	}
	return names
}

func metricNames(metrics []models.MetricSpec) []string {
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = m.MetricName
	}
	return names
}

// columnsFromSpecs materializes column rows from payload entries. Entries
// with an ID start from the stored row so unmentioned fields survive.
func columnsFromSpecs(specs []models.ColumnSpec, existing map[uint]models.Column) []models.Column {
	columns := make([]models.Column, 0, len(specs))
	for _, spec := range specs {
		var col models.Column
		if spec.ID != nil {
			if prev, ok := existing[*spec.ID]; ok {
				col = prev
			}
			col.ID = *spec.ID
		} else {
			col.UUID = uuid.NewString()
		}
		col.ColumnName = spec.ColumnName
		if spec.Type != "" {
			col.Type = spec.Type
		}
		if spec.Expression != "" {
			col.Expression = spec.Expression
		}
		if spec.Description != "" {
			col.Description = spec.Description
		}
		col.IsTemporal = spec.IsTemporal
		if spec.Extra != "" {
			col.Extra = spec.Extra
		}
		columns = append(columns, col)
	}
	return columns
}

func metricsFromSpecs(specs []models.MetricSpec, existing map[uint]models.Metric) []models.Metric {
	metrics := make([]models.Metric, 0, len(specs))
	for _, spec := range specs {
		var m models.Metric
		if spec.ID != nil {
			if prev, ok := existing[*spec.ID]; ok {
				m = prev
			}
			m.ID = *spec.ID
		} else {
			m.UUID = uuid.NewString()
		}
		m.MetricName = spec.MetricName
		if spec.Expression != "" {
			m.Expression = spec.Expression
		}
		if spec.Description != "" {
			m.Description = spec.Description
		}
		if spec.Extra != "" {
			m.Extra = spec.Extra
		}
		metrics = append(metrics, m)
	}
	return metrics
}

func appendUser(users []models.User, user *models.User) []models.User {
	for _, u := range users {
		if u.ID == user.ID {
			return users
		}
	}
	return append(users, *user)
}
