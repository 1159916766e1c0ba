package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alnoor-edu/school-ops-service/internal/cache"
	"github.com/alnoor-edu/school-ops-service/internal/events"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
	"github.com/alnoor-edu/school-ops-service/internal/validator"
)

// ServiceManagerConfig holds cross-service settings.
type ServiceManagerConfig struct {
	SuperAdminEmail string
}

// serviceManager implements ServiceManager.
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	publisher events.EventPublisher
	caches    *cache.CacheManager
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	staffService      StaffService
	ticketService     TicketService
	scheduleService   ScheduleService
	leaveService      LeaveService
	complianceService ComplianceService
	dashboardService  DashboardService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a service manager with all dependencies.
func NewServiceManager(repo repositories.Repository, publisher events.EventPublisher, caches *cache.CacheManager, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:      repo,
		publisher: publisher,
		caches:    caches,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// Initialize wires up all services. Idempotent.
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.staffService = NewStaffService(sm.repo, sm.publisher, sm.logger, sm.validator, sm.config.SuperAdminEmail)
	sm.ticketService = NewTicketService(sm.repo, sm.publisher, sm.logger, sm.validator)
	sm.scheduleService = NewScheduleService(sm.repo, sm.publisher, sm.logger, sm.validator)
	sm.leaveService = NewLeaveService(sm.repo, sm.publisher, sm.logger, sm.validator)
	sm.complianceService = NewComplianceService(sm.repo, sm.publisher, sm.caches, sm.logger)
	sm.dashboardService = NewDashboardService(sm.repo, sm.complianceService, sm.logger)

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	return sm.repo.Ping(ctx)
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Warn("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	return nil
}

// ===== SERVICE GETTERS =====

func (sm *serviceManager) Staff() StaffService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.staffService
}

func (sm *serviceManager) Ticket() TicketService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.ticketService
}

func (sm *serviceManager) Schedule() ScheduleService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.scheduleService
}

func (sm *serviceManager) Leave() LeaveService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.leaveService
}

func (sm *serviceManager) Compliance() ComplianceService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.complianceService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.dashboardService
}

func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}
