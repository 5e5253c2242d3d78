package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	m "JobCard-backend/internal/model"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported seeded fixtures
var (
	TestBusinessID      = "BIZ-1001"
	TestOtherBusinessID = "BIZ-2002"
	TestInstituteID     = "INST-501"

	// TestJob1 and TestJob2 belong to TestBusinessID and accept applications
	TestJob1 m.Job
	TestJob2 m.Job
	// TestExpiredJob is still flagged active but its end date has passed
	TestExpiredJob m.Job
	// TestMitraJob is open for Job Mitra agents in Pune
	TestMitraJob m.Job
)

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *DBinstanceStruct, error) {

	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := &DBConfig{
		DBName:    dbName,
		useConstr: true,
		Constr:    fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName),
	}

	db, err := NewDBInstance(config)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts the fixture jobs.
func seedTestData(db *DBinstanceStruct) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	nextMonth := today.AddDate(0, 1, 0)
	lastWeek := today.AddDate(0, 0, -7)
	pune := "Pune"
	minSalary, maxSalary := 18000, 25000

	jobs := []m.Job{
		{
			BusinessID: TestBusinessID,
			IsActive:   true,
			EditableJobInfo: m.EditableJobInfo{
				Title:              "Warehouse Associate",
				CompanyName:        "Shree Logistics",
				Location:           "Nagpur",
				Workplace:          "On-site",
				ApplicationEndDate: &nextMonth,
				JobType:            m.JobTypeFullTime,
				MinSalary:          &minSalary,
				MaxSalary:          &maxSalary,
				NumberOfPosts:      5,
				KeySkills:          pq.StringArray{"inventory", "forklift"},
				Languages:          pq.StringArray{"Hindi", "Marathi"},
			},
		},
		{
			BusinessID: TestBusinessID,
			IsActive:   true,
			EditableJobInfo: m.EditableJobInfo{
				Title:              "Data Entry Operator",
				CompanyName:        "Shree Logistics",
				Location:           "Nagpur",
				ApplicationEndDate: &nextMonth,
				JobType:            m.JobTypePartTime,
				NumberOfPosts:      2,
				KeySkills:          pq.StringArray{"typing", "excel"},
			},
		},
		{
			BusinessID: TestOtherBusinessID,
			IsActive:   true,
			EditableJobInfo: m.EditableJobInfo{
				Title:              "Seasonal Picker",
				CompanyName:        "Green Farms",
				Location:           "Nashik",
				ApplicationEndDate: &lastWeek,
				JobType:            m.JobTypeContract,
				NumberOfPosts:      20,
			},
		},
		{
			BusinessID: TestOtherBusinessID,
			IsActive:   true,
			EditableJobInfo: m.EditableJobInfo{
				Title:              "Delivery Partner",
				CompanyName:        "Green Farms",
				Location:           "Pune",
				ApplicationEndDate: &nextMonth,
				JobType:            m.JobTypeFullTime,
				NumberOfPosts:      10,
				JobMitraLocation:   &pune,
			},
		},
	}

	if err := db.Create(&jobs).Error; err != nil {
		return err
	}

	TestJob1 = jobs[0]
	TestJob2 = jobs[1]
	TestExpiredJob = jobs[2]
	TestMitraJob = jobs[3]

	return nil
}
