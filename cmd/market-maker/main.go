// Command market-maker wires the event bus, order book, FX service,
// quoting engine, hedger, and book ledger into one running strategy
// process for a single (source, target, hedge) instrument triple.
//
// Grounded on cmd/binance-futures/main.go's viper config + logrus JSON
// logger + signal-driven shutdown shape.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/Bishopest/openhft-sub002/internal/bus"
	"github.com/Bishopest/openhft-sub002/internal/fixedpoint"
	"github.com/Bishopest/openhft-sub002/internal/fx"
	"github.com/Bishopest/openhft-sub002/internal/gateway"
	"github.com/Bishopest/openhft-sub002/internal/hedging"
	"github.com/Bishopest/openhft-sub002/internal/instrument"
	"github.com/Bishopest/openhft-sub002/internal/ledger"
	"github.com/Bishopest/openhft-sub002/internal/marketdata"
	"github.com/Bishopest/openhft-sub002/internal/orderbook"
	"github.com/Bishopest/openhft-sub002/internal/quoting"
	"github.com/Bishopest/openhft-sub002/pkg/cache"
	binancefutures "github.com/Bishopest/openhft-sub002/services/binance/futures"
)

// exchangeCredential reads the <EXCHANGE>_<MODE>_API_KEY/<EXCHANGE>_<MODE>_API_SECRET
// pair per spec §6. Absence is non-fatal: the adapter runs public-only.
func exchangeCredential(exchange string, testnet bool) (apiKey, apiSecret string) {
	mode := "LIVE"
	if testnet {
		mode = "TESTNET"
	}
	prefix := exchange + "_" + mode + "_"
	return os.Getenv(prefix + "API_KEY"), os.Getenv(prefix + "API_SECRET")
}

// staticSymbols is a trivial gateway.SymbolResolver backed by the config
// file; a production registry would come from an instrument master.
type staticSymbols map[int32]string

func (s staticSymbols) Symbol(instrumentID int32) (string, bool) {
	sym, ok := s[instrumentID]
	return sym, ok
}

// staticInstruments is the reverse of staticSymbols: a trivial
// gateway.InstrumentResolver for translating exchange-reported symbols
// back to internal instrument IDs.
type staticInstruments map[string]int32

func (s staticInstruments) InstrumentID(symbol string) (int32, bool) {
	id, ok := s[symbol]
	return id, ok
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
	entry := logrus.NewEntry(log).WithField("component", "market-maker")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/configs")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	if err := viper.ReadInConfig(); err != nil {
		entry.WithError(err).Fatal("failed to read config")
	}

	sourceID := int32(viper.GetInt("market_maker.source_instrument_id"))
	targetID := int32(viper.GetInt("market_maker.target_instrument_id"))
	hedgeID := int32(viper.GetInt("market_maker.hedge_instrument_id"))
	symbol := viper.GetString("market_maker.symbol")
	hedgeSymbol := viper.GetString("market_maker.hedge_symbol")

	quoteInst := instrument.Instrument{
		ID:                   targetID,
		Symbol:               symbol,
		ProductType:          instrument.ProductPerpetual,
		QuoteCurrency:        viper.GetString("market_maker.quote_currency"),
		DenominationCurrency: viper.GetString("market_maker.quote_currency"),
		Multiplier:           fixedpoint.QuantityFromDecimal(decimalFromString(viper.GetString("market_maker.multiplier"))),
		TickSize:             fixedpoint.PriceFromDecimal(decimalFromString(viper.GetString("market_maker.tick_size"))),
		LotSize:              fixedpoint.QuantityFromDecimal(decimalFromString(viper.GetString("market_maker.lot_size"))),
	}
	hedgeInst := instrument.Instrument{
		ID:                   hedgeID,
		Symbol:               hedgeSymbol,
		ProductType:          instrument.ProductPerpetual,
		QuoteCurrency:        "USDT",
		DenominationCurrency: "USDT",
		Multiplier:           fixedpoint.QuantityFromDecimal(decimalFromString(viper.GetString("market_maker.hedge_multiplier"))),
		MinOrderSize:         fixedpoint.QuantityFromDecimal(decimalFromString(viper.GetString("market_maker.hedge_min_order_size"))),
		LotSize:              fixedpoint.QuantityFromDecimal(decimalFromString(viper.GetString("market_maker.hedge_lot_size"))),
	}

	resumeTTLMinutes := viper.GetInt("market_maker.resume_cache_ttl_minutes")
	if resumeTTLMinutes <= 0 {
		resumeTTLMinutes = 10
	}
	distributor := bus.NewDistributor(bus.NewRing(bus.DefaultCapacity), bus.NewBlockingWaitStrategy(), orderbook.DefaultMaxDepth, entry.WithField("subcomponent", "bus"))
	distributor.WithResumeCache(cache.NewSubscriberCache(time.Duration(resumeTTLMinutes) * time.Minute))
	go distributor.Run()

	fxService := fx.NewService(entry.WithField("subcomponent", "fx"))

	testnet := viper.GetBool("market_maker.testnet")
	apiKey, apiSecret := exchangeCredential("BINANCE", testnet)
	client, err := binancefutures.NewBinanceFutures(apiKey, apiSecret, testnet)
	if err != nil {
		entry.WithError(err).Fatal("failed to create binance futures client")
	}

	symbols := staticSymbols{targetID: symbol, hedgeID: hedgeSymbol}
	instruments := staticInstruments{symbol: targetID, hedgeSymbol: hedgeID}
	rawGateway := gateway.NewBinanceFuturesGateway(client, symbols)
	rateLimited := gateway.NewRateLimiterGateway(rawGateway, viper.GetInt("market_maker.orders_per_second"), viper.GetInt("market_maker.orders_per_minute"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		entry.Info("shutdown signal received")
		cancel()
	}()

	distributor.SubscribeOrderBook(sourceID, gateway.TopicOrderBook, "quoting-source", func(b *orderbook.Book) {})
	distributor.SubscribeOrderBook(hedgeID, gateway.TopicOrderBook, "hedging-source", func(b *orderbook.Book) {})
	distributor.Subscribe(sourceID, bus.Consumer{Name: "trade-log", Topic: gateway.TopicTrade, Callback: func(ev marketdata.Event) {
		entry.WithField("sequence", ev.Sequence).Debug("trade received")
	}})
	sourceBook, _ := distributor.Book(sourceID)
	hedgeBook, _ := distributor.Book(hedgeID)
	fxService.RegisterBook(hedgeID, hedgeBook)

	fvModel, err := quoting.NewFVModel(quoting.FVModelMid)
	if err != nil {
		entry.WithError(err).Fatal("failed to build fair-value model")
	}

	params := quoting.QuotingParameters{
		SourceInstrumentID:      sourceID,
		TargetInstrumentID:      targetID,
		FVModel:                 fvModel,
		Depth:                   int(viper.GetInt("market_maker.depth")),
		AskSpreadBp:             viper.GetInt64("market_maker.ask_spread_bp"),
		BidSpreadBp:             viper.GetInt64("market_maker.bid_spread_bp"),
		StepBp:                  viper.GetInt64("market_maker.step_bp"),
		SkewBp:                  viper.GetInt64("market_maker.skew_bp"),
		GroupingBp:               viper.GetInt64("market_maker.grouping_bp"),
		Size:                    fixedpoint.QuantityFromDecimal(decimalFromString(viper.GetString("market_maker.quote_size"))),
		Tick:                    quoteInst.TickSize,
		Lot:                     quoteInst.LotSize,
		Hitting:                 quoting.HittingNoCross,
		ExpectedUpdateInterval:  time.Duration(viper.GetInt("market_maker.expected_update_interval_ms")) * time.Millisecond,
	}

	engine := quoting.NewEngine("mm-"+symbol, params, rateLimited, sourceBook, entry.WithField("subcomponent", "quoting"))

	hedger := hedging.NewHedger(hedging.HedgingParameters{
		QuoteInstrument: quoteInst,
		HedgeInstrument: hedgeInst,
		MaxOrderSize:    fixedpoint.QuantityFromDecimal(decimalFromString(viper.GetString("market_maker.hedge_max_order_size"))),
	}, fxService, rateLimited, hedgeBook, entry.WithField("subcomponent", "hedging"))
	hedger.SetHedgeExchangeConnected(ctx, true)

	feed := gateway.NewBinanceFuturesFeed(client, symbols, instruments)
	feed.OnMarketDataReceived(func(ev marketdata.Event) {
		if !distributor.Publish(ev) {
			entry.WithField("instrument_id", ev.InstrumentID).Warn("feed: event dropped, distributor ring full")
		}
	})
	feed.OnConnectionStateChanged(func(s gateway.ConnectionStateChanged) {
		if !s.IsConnected {
			entry.WithField("reason", s.Reason).Warn("feed: disconnected")
			hedger.SetHedgeExchangeConnected(ctx, false)
			return
		}
		hedger.SetHedgeExchangeConnected(ctx, true)
	})
	feed.OnOrderUpdateReceived(func(report gateway.OrderStatusReport) {
		switch report.InstrumentID {
		case targetID:
			if report.Status == gateway.StatusFilled || report.Status == gateway.StatusPartiallyFilled {
				engine.RecordFill(report.Side, report.Price, report.Quantity)
			}
		case hedgeID:
			switch report.Status {
			case gateway.StatusFilled:
				if err := hedger.OnHedgeOrderFilled(ctx, report.ClientOrderID); err != nil {
					entry.WithError(err).Error("hedger: failed to process hedge fill")
				}
			case gateway.StatusCancelled:
				if err := hedger.OnHedgeOrderCancelled(ctx, report.ClientOrderID, report.LeavesQuantity, report.Side); err != nil {
					entry.WithError(err).Error("hedger: failed to process hedge cancel")
				}
			}
		}
	})
	if err := feed.Connect(ctx); err != nil {
		entry.WithError(err).Warn("feed: initial connect failed, continuing to retry via subscriptions")
	}
	if err := feed.Subscribe([]int32{sourceID, hedgeID}, []int32{gateway.TopicOrderBook, gateway.TopicTrade}); err != nil {
		entry.WithError(err).Fatal("feed: failed to subscribe to market data")
	}
	if err := feed.SubscribeUserData(); err != nil {
		entry.WithError(err).Error("feed: failed to subscribe to user data stream")
	}

	bookLedger := ledger.New(func(a fixedpoint.CurrencyAmount) (fixedpoint.CurrencyAmount, bool) {
		return fxService.Convert(a, "USDT")
	}, entry.WithField("subcomponent", "ledger"))

	engine.OnFill(func(side gateway.Side, price fixedpoint.Price, qty fixedpoint.Quantity) {
		// The engine hands over a side-signed quantity; the ledger and the
		// hedger take the magnitude and apply the side's sign themselves.
		qty = qty.Abs()
		if _, err := bookLedger.OnOrderFilled("mm-"+symbol, quoteInst, ledger.Fill{
			Side:     ledgerSide(side),
			Price:    price,
			Quantity: qty,
		}); err != nil {
			entry.WithError(err).Error("ledger: failed to apply quote fill")
		}
		if err := hedger.OnQuoteFill(ctx, side, price, qty); err != nil {
			entry.WithError(err).Error("hedger: failed to process quote fill")
		}
	})

	ticker := time.NewTicker(time.Duration(viper.GetInt("market_maker.tick_interval_ms")) * time.Millisecond)
	defer ticker.Stop()

	entry.Info("market maker started")
	for {
		select {
		case <-ctx.Done():
			engine.Retire(context.Background())
			if err := feed.Disconnect(); err != nil {
				entry.WithError(err).Warn("feed: disconnect failed")
			}
			distributor.Stop()
			entry.Info("market maker stopped")
			return
		case <-ticker.C:
			engine.Tick(ctx)
		}
	}
}

func ledgerSide(s gateway.Side) ledger.Side {
	if s == marketdata.SideSell {
		return ledger.SideSell
	}
	return ledger.SideBuy
}

func decimalFromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
