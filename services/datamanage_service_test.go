package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"datamanageapi/models"
)

// fakeDatamanageRepo satisfies DatamanageRepository with canned results for
// the read paths the validation logic touches.
type fakeDatamanageRepo struct {
	byID       map[uint]*models.Datamanage
	byUUID     map[string]*models.Datamanage
	nameCount  int64
	ownedCols  int64
	colsByName int64
	ownedMets  int64
	metsByName int64
}

func (f *fakeDatamanageRepo) GetByID(tx *gorm.DB, id uint) (*models.Datamanage, error) {
	if dm, ok := f.byID[id]; ok {
		return dm, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDatamanageRepo) GetByUUID(tx *gorm.DB, uuid string) (*models.Datamanage, error) {
	if dm, ok := f.byUUID[uuid]; ok {
		return dm, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDatamanageRepo) List(tx *gorm.DB, offset, limit int) ([]models.Datamanage, int64, error) {
	return nil, 0, nil
}
func (f *fakeDatamanageRepo) Create(tx *gorm.DB, dm *models.Datamanage) error { return nil }
func (f *fakeDatamanageRepo) Save(tx *gorm.DB, dm *models.Datamanage) error   { return nil }
func (f *fakeDatamanageRepo) Delete(tx *gorm.DB, dm *models.Datamanage) error { return nil }

func (f *fakeDatamanageRepo) CountByDatabaseIDAndName(tx *gorm.DB, databaseID uint, name string, excludeID uint) (int64, error) {
	return f.nameCount, nil
}
func (f *fakeDatamanageRepo) CountOwnedColumns(tx *gorm.DB, datamanageID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return f.ownedCols, nil
}
func (f *fakeDatamanageRepo) CountColumnsByName(tx *gorm.DB, datamanageID uint, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	return f.colsByName, nil
}
func (f *fakeDatamanageRepo) CountOwnedMetrics(tx *gorm.DB, datamanageID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return f.ownedMets, nil
}
func (f *fakeDatamanageRepo) CountMetricsByName(tx *gorm.DB, datamanageID uint, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	return f.metsByName, nil
}

func (f *fakeDatamanageRepo) ReplaceColumns(tx *gorm.DB, dm *models.Datamanage, columns []models.Column) error {
	return nil
}
func (f *fakeDatamanageRepo) ReplaceMetrics(tx *gorm.DB, dm *models.Datamanage, metrics []models.Metric) error {
	return nil
}
func (f *fakeDatamanageRepo) ReplaceOwners(tx *gorm.DB, dm *models.Datamanage, owners []models.User) error {
	return nil
}
func (f *fakeDatamanageRepo) AppendOwner(tx *gorm.DB, dm *models.Datamanage, owner *models.User) error {
	return nil
}

type fakeDatabaseRepo struct {
	byID map[uint]*models.Database
}

func (f *fakeDatabaseRepo) GetByID(tx *gorm.DB, id uint) (*models.Database, error) {
	if db, ok := f.byID[id]; ok {
		return db, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeDatabaseRepo) GetByUUID(tx *gorm.DB, uuid string) (*models.Database, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeDatabaseRepo) TableExists(tx *gorm.DB, tableName string) (bool, error) {
	return false, nil
}

type fakeUserRepo struct {
	users map[uint]models.User
}

func (f *fakeUserRepo) GetByID(tx *gorm.DB, id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) GetByIDs(tx *gorm.DB, ids []uint) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
func (f *fakeUserRepo) GetByUsername(tx *gorm.DB, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) GetAll(tx *gorm.DB) ([]models.User, error) { return nil, nil }

func newTestService(dmRepo *fakeDatamanageRepo, dbRepo *fakeDatabaseRepo, userRepo *fakeUserRepo) DatamanageService {
	if dmRepo == nil {
		dmRepo = &fakeDatamanageRepo{}
	}
	if dbRepo == nil {
		dbRepo = &fakeDatabaseRepo{}
	}
	if userRepo == nil {
		userRepo = &fakeUserRepo{}
	}
	return NewDatamanageServiceWithDeps(nil, dmRepo, dbRepo, userRepo)
}

func ownedDatamanage(id, ownerID uint) *models.Datamanage {
	return &models.Datamanage{
		ID:         id,
		DatabaseID: 1,
		Name:       "cleaned_sales",
		Owners:     []models.User{{ID: ownerID, Username: "owner"}},
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(&fakeDatamanageRepo{}, nil, nil)

	_, err := svc.Get(context.Background(), 99)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_RequiresAuthenticatedUser(t *testing.T) {
	repo := &fakeDatamanageRepo{byID: map[uint]*models.Datamanage{1: ownedDatamanage(1, 2)}}
	svc := newTestService(repo, nil, nil)

	_, err := svc.Update(context.Background(), nil, 1, models.DatamanageUpdateRequest{}, false)

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdate_NonOwnerForbidden(t *testing.T) {
	repo := &fakeDatamanageRepo{byID: map[uint]*models.Datamanage{1: ownedDatamanage(1, 2)}}
	svc := newTestService(repo, nil, nil)
	stranger := &models.User{ID: 9, Username: "stranger"}

	_, err := svc.Update(context.Background(), stranger, 1, models.DatamanageUpdateRequest{}, false)

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdate_AdminBypassesOwnership(t *testing.T) {
	repo := &fakeDatamanageRepo{byID: map[uint]*models.Datamanage{1: ownedDatamanage(1, 2)}}
	svc := newTestService(repo, nil, nil)
	admin := &models.User{
		ID:    9,
		Roles: []models.Role{{Name: models.AdminRoleName}},
	}

	// The admin rejection happens before any write; a database-change
	// request keeps the flow inside validation.
	_, err := svc.Update(context.Background(), admin, 1, models.DatamanageUpdateRequest{DatabaseID: 5}, false)

	verr, ok := AsValidationError(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	assert.Contains(t, verr.Issues[0], "database cannot be changed")
}

func TestUpdate_RejectsDatabaseChange(t *testing.T) {
	repo := &fakeDatamanageRepo{byID: map[uint]*models.Datamanage{1: ownedDatamanage(1, 2)}}
	svc := newTestService(repo, nil, nil)
	owner := &models.User{ID: 2}

	_, err := svc.Update(context.Background(), owner, 1, models.DatamanageUpdateRequest{DatabaseID: 7}, false)

	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Len(t, verr.Issues, 1)
}

func TestUpdate_RejectsDuplicateName(t *testing.T) {
	repo := &fakeDatamanageRepo{
		byID:      map[uint]*models.Datamanage{1: ownedDatamanage(1, 2)},
		nameCount: 1,
	}
	svc := newTestService(repo, nil, nil)
	owner := &models.User{ID: 2}

	_, err := svc.Update(context.Background(), owner, 1, models.DatamanageUpdateRequest{Name: "taken"}, false)

	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, verr.Issues[0], "already exists")
}

func TestUpdate_CollectsMultipleIssues(t *testing.T) {
	colID := uint(77)
	repo := &fakeDatamanageRepo{
		byID:      map[uint]*models.Datamanage{1: ownedDatamanage(1, 2)},
		nameCount: 1,
		ownedCols: 0, // the referenced column id is not attached
	}
	svc := newTestService(repo, nil, &fakeUserRepo{users: map[uint]models.User{}})
	owner := &models.User{ID: 2}

	req := models.DatamanageUpdateRequest{
		Name:    "taken",
		Owners:  []uint{404},
		Columns: []models.ColumnSpec{{ID: &colID, ColumnName: "ds"}},
	}
	_, err := svc.Update(context.Background(), owner, 1, req, false)

	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Len(t, verr.Issues, 3)
}

func TestUpdate_DuplicateColumnsSkipFurtherChecks(t *testing.T) {
	repo := &fakeDatamanageRepo{
		byID:       map[uint]*models.Datamanage{1: ownedDatamanage(1, 2)},
		colsByName: 5, // would trip the collision check if it ran
	}
	svc := newTestService(repo, nil, nil)
	owner := &models.User{ID: 2}

	req := models.DatamanageUpdateRequest{
		Columns: []models.ColumnSpec{
			{ColumnName: "ds"},
			{ColumnName: "ds"},
		},
	}
	_, err := svc.Update(context.Background(), owner, 1, req, false)

	verr, ok := AsValidationError(err)
	require.True(t, ok)
	require.Len(t, verr.Issues, 1)
	assert.Contains(t, verr.Issues[0], "duplicate column names: ds")
}

func TestUpdate_OverrideColumnsSkipsCollisionCheck(t *testing.T) {
	repo := &fakeDatamanageRepo{
		byID:       map[uint]*models.Datamanage{1: ownedDatamanage(1, 2)},
		nameCount:  1, // keeps the flow inside validation either way
		colsByName: 5,
	}
	svc := newTestService(repo, nil, nil)
	owner := &models.User{ID: 2}

	req := models.DatamanageUpdateRequest{
		Name:    "taken",
		Columns: []models.ColumnSpec{{ColumnName: "fresh"}},
	}

	_, err := svc.Update(context.Background(), owner, 1, req, false)
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Len(t, verr.Issues, 2, "collision check runs without override")

	_, err = svc.Update(context.Background(), owner, 1, req, true)
	verr, ok = AsValidationError(err)
	require.True(t, ok)
	assert.Len(t, verr.Issues, 1, "collision check skipped with override")
}

func TestDelete_NotFound(t *testing.T) {
	svc := newTestService(&fakeDatamanageRepo{}, nil, nil)

	err := svc.Delete(context.Background(), &models.User{ID: 1}, 404)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_NonOwnerForbidden(t *testing.T) {
	repo := &fakeDatamanageRepo{byID: map[uint]*models.Datamanage{1: ownedDatamanage(1, 2)}}
	svc := newTestService(repo, nil, nil)

	err := svc.Delete(context.Background(), &models.User{ID: 9}, 1)

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreate_CollectsDatabaseAndOwnerIssues(t *testing.T) {
	svc := newTestService(&fakeDatamanageRepo{}, &fakeDatabaseRepo{}, &fakeUserRepo{})

	req := models.DatamanageCreateRequest{
		DatabaseID: 12,
		Name:       "orders",
		Owners:     []uint{3},
	}
	_, err := svc.Create(context.Background(), &models.User{ID: 1}, req)

	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Len(t, verr.Issues, 2)
}

func TestRaiseForOwnership(t *testing.T) {
	dm := ownedDatamanage(1, 2)

	assert.ErrorIs(t, raiseForOwnership(nil, dm), ErrUnauthorized)
	assert.ErrorIs(t, raiseForOwnership(&models.User{ID: 5}, dm), ErrForbidden)
	assert.NoError(t, raiseForOwnership(&models.User{ID: 2}, dm))
	admin := &models.User{ID: 5, Roles: []models.Role{{Name: models.AdminRoleName}}}
	assert.NoError(t, raiseForOwnership(admin, dm))
}

func TestDuplicateNames(t *testing.T) {
	assert.Empty(t, duplicateNames([]string{"a", "b", "c"}))
	assert.Equal(t, []string{"a", "b"}, duplicateNames([]string{"a", "b", "a", "b", "a"}))
}

func TestColumnsFromSpecs_PreservesStoredFields(t *testing.T) {
	id := uint(3)
	existing := map[uint]models.Column{
		3: {ID: 3, UUID: "keep-me", ColumnName: "old", Type: "BIGINT", Description: "stored"},
	}
	specs := []models.ColumnSpec{
		{ID: &id, ColumnName: "renamed"},
		{ColumnName: "brand_new", Type: "VARCHAR(32)"},
	}

	cols := columnsFromSpecs(specs, existing)

	require.Len(t, cols, 2)
	assert.Equal(t, uint(3), cols[0].ID)
	assert.Equal(t, "keep-me", cols[0].UUID)
	assert.Equal(t, "renamed", cols[0].ColumnName)
	assert.Equal(t, "BIGINT", cols[0].Type)
	assert.Equal(t, "stored", cols[0].Description)

	assert.Zero(t, cols[1].ID)
	assert.NotEmpty(t, cols[1].UUID)
	assert.Equal(t, "brand_new", cols[1].ColumnName)
}

func TestApplyUpdate_PointerFieldsDistinguishUnset(t *testing.T) {
	dm := &models.Datamanage{Name: "orders", Expression: "SELECT 1", IsPhysical: true}

	empty := ""
	physical := false
	applyUpdate(dm, models.DatamanageUpdateRequest{
		Expression: &empty,
		IsPhysical: &physical,
	})

	assert.Equal(t, "orders", dm.Name, "empty name means unchanged")
	assert.Equal(t, "", dm.Expression, "explicit empty expression clears it")
	assert.False(t, dm.IsPhysical)
}

func TestAppendUser_NoDuplicate(t *testing.T) {
	user := &models.User{ID: 1}
	owners := appendUser([]models.User{{ID: 1}, {ID: 2}}, user)
	assert.Len(t, owners, 2)

	owners = appendUser([]models.User{{ID: 2}}, user)
	assert.Len(t, owners, 2)
}
