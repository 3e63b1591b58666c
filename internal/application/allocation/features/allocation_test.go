package features

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/jhoicas/Asignacion-api/internal/application/allocation"
	"github.com/jhoicas/Asignacion-api/internal/domain/entity"
	"github.com/jhoicas/Asignacion-api/internal/infrastructure/memory"
)

type allocationTestContext struct {
	store   *memory.Store
	uc      *allocation.AllocationUseCase
	lastRef entity.BatchRef
	err     error
}

func (c *allocationTestContext) reset() error {
	store, err := memory.NewStore()
	if err != nil {
		return err
	}
	c.store = store
	c.uc = allocation.NewAllocationUseCase(memory.NewUnitOfWorkFactory(store))
	c.lastRef = ""
	c.err = nil
	return nil
}

func (c *allocationTestContext) loadBatch(ref string) (*entity.Batch, error) {
	ctx := context.Background()
	uow := memory.NewUnitOfWork(c.store)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = uow.Rollback(ctx) }()
	return uow.Batches().Get(ctx, entity.BatchRef(ref))
}

func (c *allocationTestContext) aBatchInStock(ref string, qty int, sku string) error {
	return c.uc.AddBatch(context.Background(), entity.BatchRef(ref), sku, qty, nil)
}

func (c *allocationTestContext) aBatchWithETA(ref string, qty int, sku string, days int) error {
	eta := time.Now().UTC().AddDate(0, 0, days)
	return c.uc.AddBatch(context.Background(), entity.BatchRef(ref), sku, qty, &eta)
}

func (c *allocationTestContext) iAllocate(orderID string, qty int, sku string) error {
	c.lastRef, c.err = c.uc.Allocate(context.Background(), orderID, sku, qty)
	return nil
}

func (c *allocationTestContext) iChangeBatchQuantity(ref string, qty int) error {
	return c.uc.ChangeBatchQuantity(context.Background(), entity.BatchRef(ref), qty)
}

func (c *allocationTestContext) theLineIsInBatch(ref string) error {
	if c.err != nil {
		return fmt.Errorf("asignación inesperadamente fallida: %w", c.err)
	}
	if c.lastRef != entity.BatchRef(ref) {
		return fmt.Errorf("esperaba lote %s, obtuvo %s", ref, c.lastRef)
	}
	return nil
}

func (c *allocationTestContext) allocationFailsWith(msg string) error {
	if c.err == nil {
		return errors.New("esperaba error de asignación")
	}
	if c.err.Error() != msg {
		return fmt.Errorf("esperaba %q, obtuvo %q", msg, c.err.Error())
	}
	return nil
}

func (c *allocationTestContext) batchHasAvailable(ref string, qty int) error {
	b, err := c.loadBatch(ref)
	if err != nil {
		return err
	}
	if b.AvailableQty() != qty {
		return fmt.Errorf("lote %s: esperaba %d disponibles, hay %d", ref, qty, b.AvailableQty())
	}
	return nil
}

func (c *allocationTestContext) batchKeepsOnlyLine(ref, orderID string) error {
	b, err := c.loadBatch(ref)
	if err != nil {
		return err
	}
	lines := b.Allocations()
	if len(lines) != 1 || lines[0].OrderID != orderID {
		return fmt.Errorf("lote %s: esperaba solo la línea %s, hay %v", ref, orderID, lines)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &allocationTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset()
	})

	// Dado
	ctx.Step(`^un lote "([^"]*)" de (\d+) unidades de "([^"]*)" en bodega$`, tc.aBatchInStock)
	ctx.Step(`^un lote "([^"]*)" de (\d+) unidades de "([^"]*)" con ETA en (\d+) días$`, tc.aBatchWithETA)

	// Cuando
	ctx.Step(`^asigno la línea "([^"]*)" de (\d+) unidades de "([^"]*)"$`, tc.iAllocate)
	ctx.Step(`^cambio la cantidad del lote "([^"]*)" a (\d+)$`, tc.iChangeBatchQuantity)

	// Entonces
	ctx.Step(`^la línea queda en el lote "([^"]*)"$`, tc.theLineIsInBatch)
	ctx.Step(`^la asignación falla con "([^"]*)"$`, tc.allocationFailsWith)
	ctx.Step(`^el lote "([^"]*)" tiene (\d+) unidades disponibles$`, tc.batchHasAvailable)
	ctx.Step(`^el lote "([^"]*)" conserva solo la línea "([^"]*)"$`, tc.batchKeepsOnlyLine)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"allocation.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
