package database

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		unit_price REAL NOT NULL CHECK (unit_price >= 0),
		quantity_on_hand INTEGER NOT NULL CHECK (quantity_on_hand >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products(id),
		product_name TEXT NOT NULL,
		quantity_sold INTEGER NOT NULL CHECK (quantity_sold > 0),
		total_price REAL NOT NULL,
		sale_timestamp TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_product_id ON sales (product_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('admin', 'cashier'))
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		unit_price NUMERIC(12,2) NOT NULL CHECK (unit_price >= 0),
		quantity_on_hand INTEGER NOT NULL CHECK (quantity_on_hand >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id),
		product_name TEXT NOT NULL,
		quantity_sold INTEGER NOT NULL CHECK (quantity_sold > 0),
		total_price NUMERIC(22,2) NOT NULL,
		sale_timestamp TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_product_id ON sales (product_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('admin', 'cashier'))
	)`,
}
